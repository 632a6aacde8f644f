package models

import "strings"

// PlaylistFolderNode is a reference node of the user's playlist folder tree,
// as exported by external folder-sync tooling.
type PlaylistFolderNode struct {
	Name     *string              `json:"name"`
	NodeType string               `json:"type"`
	URI      string               `json:"uri"`
	Children []PlaylistFolderNode `json:"children"`
}

// PlaylistFolderItem is an entry in the flattened playlist display order:
// either a playlist or a folder marker.
type PlaylistFolderItem struct {
	Playlist *Playlist
	Folder   *PlaylistFolder
}

// PlaylistFolder is a folder marker carrying the nesting level on each side
// of the marker.
type PlaylistFolder struct {
	Name        string
	URI         string
	LevelBefore int
	LevelAfter  int
}

// Structurize flattens the user's playlists against the folder-node forest
// into the canonical display order. Playlists that appear in no folder come
// first at level zero; each folder contributes a marker and an "up" marker
// restoring the previous level, followed by its contents.
func Structurize(playlists []Playlist, nodes []PlaylistFolderNode) []PlaylistFolderItem {
	foldered := make(map[string]bool)
	collectFolderedIDs(nodes, foldered)

	var items []PlaylistFolderItem
	for i := range playlists {
		if !foldered[string(playlists[i].ID)] {
			items = append(items, PlaylistFolderItem{Playlist: &playlists[i]})
		}
	}

	byID := make(map[string]*Playlist, len(playlists))
	for i := range playlists {
		byID[string(playlists[i].ID)] = &playlists[i]
	}

	level := 0
	return appendFolderItems(nodes, byID, &level, items)
}

func collectFolderedIDs(nodes []PlaylistFolderNode, acc map[string]bool) {
	for _, n := range nodes {
		if n.NodeType == "folder" {
			collectFolderedIDs(n.Children, acc)
		} else {
			acc[strings.TrimPrefix(n.URI, "spotify:playlist:")] = true
		}
	}
}

func appendFolderItems(nodes []PlaylistFolderNode, byID map[string]*Playlist, level *int, acc []PlaylistFolderItem) []PlaylistFolderItem {
	before := *level
	for _, n := range nodes {
		id := n.URI
		if idx := strings.LastIndex(n.URI, ":"); idx >= 0 {
			id = n.URI[idx+1:]
		}

		if n.NodeType == "folder" {
			*level++
			name := ""
			if n.Name != nil {
				name = *n.Name
			}
			acc = append(acc, PlaylistFolderItem{Folder: &PlaylistFolder{
				Name:        name,
				URI:         n.URI,
				LevelBefore: before,
				LevelAfter:  *level,
			}})
			acc = append(acc, PlaylistFolderItem{Folder: &PlaylistFolder{
				Name:        "← " + name,
				URI:         n.URI,
				LevelBefore: *level,
				LevelAfter:  before,
			}})
			acc = appendFolderItems(n.Children, byID, level, acc)
			*level = before
		} else if p, found := byID[id]; found {
			acc = append(acc, PlaylistFolderItem{Playlist: p})
		}
	}
	return acc
}
