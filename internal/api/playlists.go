package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"spotd/internal/models"
)

// batchLimit caps the ids submitted per playlist mutation call. The remote
// API accepts up to 100; 90 leaves headroom.
const batchLimit = 90

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > 0 {
		n := min(size, len(ids))
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}

// CreatePlaylist creates a playlist owned by user.
func (c *Client) CreatePlaylist(ctx context.Context, user models.UserID, name string, public, collab bool, desc string) (*models.Playlist, error) {
	body := map[string]any{
		"name":          name,
		"public":        public,
		"collaborative": collab,
		"description":   desc,
	}
	var p playlistObject
	if err := c.do(ctx, http.MethodPost, c.endpoint(fmt.Sprintf("/users/%s/playlists", user)), body, &p); err != nil {
		return nil, err
	}
	playlist := p.model()
	return &playlist, nil
}

// AddItemsToPlaylist appends playable items to a playlist. Callers may submit
// unlimited lists; requests are chunked under the batch limit.
func (c *Client) AddItemsToPlaylist(ctx context.Context, playlist models.PlaylistID, ids []models.PlayableID) error {
	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = string(id.URI())
	}

	for _, chunk := range chunkIDs(uris, batchLimit) {
		body := map[string]any{"uris": chunk}
		if err := c.do(ctx, http.MethodPost, c.endpoint(fmt.Sprintf("/playlists/%s/tracks", playlist)), body, nil); err != nil {
			return err
		}
	}
	return nil
}

// RemoveAllOccurrences removes every occurrence of the given items from a
// playlist, chunked under the batch limit.
func (c *Client) RemoveAllOccurrences(ctx context.Context, playlist models.PlaylistID, ids []models.PlayableID) error {
	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = string(id.URI())
	}

	for _, chunk := range chunkIDs(uris, batchLimit) {
		items := make([]map[string]string, len(chunk))
		for i, uri := range chunk {
			items[i] = map[string]string{"uri": uri}
		}
		body := map[string]any{"tracks": items}
		if err := c.do(ctx, http.MethodDelete, c.endpoint(fmt.Sprintf("/playlists/%s/tracks", playlist)), body, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReorderPlaylistItems moves a range of playlist items before insertBefore.
func (c *Client) ReorderPlaylistItems(ctx context.Context, playlist models.PlaylistID, rangeStart, insertBefore, rangeLength int, snapshotID string) error {
	body := map[string]any{
		"range_start":   rangeStart,
		"insert_before": insertBefore,
	}
	if rangeLength > 0 {
		body["range_length"] = rangeLength
	}
	if snapshotID != "" {
		body["snapshot_id"] = snapshotID
	}
	return c.do(ctx, http.MethodPut, c.endpoint(fmt.Sprintf("/playlists/%s/tracks", playlist)), body, nil)
}
