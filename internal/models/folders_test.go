package models

import "testing"

func strPtr(s string) *string { return &s }

func TestStructurize(t *testing.T) {
	playlists := []Playlist{
		{ID: "root1", Name: "Root One"},
		{ID: "in1", Name: "In Folder"},
		{ID: "in2", Name: "In Nested"},
	}
	nodes := []PlaylistFolderNode{
		{
			Name:     strPtr("Folder"),
			NodeType: "folder",
			URI:      "spotify:folder:f1",
			Children: []PlaylistFolderNode{
				{NodeType: "playlist", URI: "spotify:playlist:in1"},
				{
					Name:     strPtr("Nested"),
					NodeType: "folder",
					URI:      "spotify:folder:f2",
					Children: []PlaylistFolderNode{
						{NodeType: "playlist", URI: "spotify:playlist:in2"},
					},
				},
			},
		},
	}

	items := Structurize(playlists, nodes)

	// root playlist first, then folder marker, up marker, folder contents
	if items[0].Playlist == nil || items[0].Playlist.ID != "root1" {
		t.Fatalf("first item = %+v, want the un-foldered playlist", items[0])
	}

	var folders []*PlaylistFolder
	var flattened []PlaylistID
	for _, item := range items {
		if item.Folder != nil {
			folders = append(folders, item.Folder)
		} else {
			flattened = append(flattened, item.Playlist.ID)
		}
	}

	if len(flattened) != 3 {
		t.Errorf("playlists in display order = %v, want 3", flattened)
	}
	// two folders, each contributing a marker and an up marker
	if len(folders) != 4 {
		t.Fatalf("folder markers = %d, want 4", len(folders))
	}

	outer := folders[0]
	if outer.Name != "Folder" || outer.LevelBefore != 0 || outer.LevelAfter != 1 {
		t.Errorf("outer folder marker = %+v", outer)
	}
	outerUp := folders[1]
	if outerUp.LevelBefore != 1 || outerUp.LevelAfter != 0 {
		t.Errorf("outer up marker = %+v", outerUp)
	}
	nested := folders[2]
	if nested.LevelBefore != 1 || nested.LevelAfter != 2 {
		t.Errorf("nested folder marker = %+v", nested)
	}
}

func TestStructurize_NoFolders(t *testing.T) {
	playlists := []Playlist{{ID: "p1"}, {ID: "p2"}}

	items := Structurize(playlists, nil)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for i, item := range items {
		if item.Playlist == nil || item.Playlist.ID != playlists[i].ID {
			t.Errorf("item %d = %+v", i, item)
		}
	}
}
