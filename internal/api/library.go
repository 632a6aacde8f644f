package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"spotd/internal/models"
)

// CurrentUser returns the current user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var u userObject
	if err := c.get(ctx, c.endpoint("/me"), &u); err != nil {
		return nil, err
	}
	return &models.User{ID: models.UserID(u.ID), DisplayName: u.DisplayName}, nil
}

// SavedTracks returns every saved (liked) track of the current user.
func (c *Client) SavedTracks(ctx context.Context) ([]models.Track, error) {
	var first page[savedTrackObject]
	if err := c.get(ctx, c.endpoint("/me/tracks?limit=50"), &first); err != nil {
		return nil, err
	}
	saved, err := collectAll(ctx, c, first)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	for _, s := range saved {
		if track, ok := s.Track.model(); ok {
			track.AddedAt = parseAddedAt(s.AddedAt)
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// SavedAlbums returns every saved album of the current user.
func (c *Client) SavedAlbums(ctx context.Context) ([]models.Album, error) {
	var first page[savedAlbumObject]
	if err := c.get(ctx, c.endpoint("/me/albums?limit=50"), &first); err != nil {
		return nil, err
	}
	saved, err := collectAll(ctx, c, first)
	if err != nil {
		return nil, err
	}

	albums := make([]models.Album, 0, len(saved))
	for _, s := range saved {
		album := s.Album.model()
		album.AddedAt = parseAddedAt(s.AddedAt)
		albums = append(albums, album)
	}
	return albums, nil
}

// SavedShows returns every saved show of the current user.
func (c *Client) SavedShows(ctx context.Context) ([]models.Show, error) {
	var first page[savedShowObject]
	if err := c.get(ctx, c.endpoint("/me/shows?limit=50"), &first); err != nil {
		return nil, err
	}
	saved, err := collectAll(ctx, c, first)
	if err != nil {
		return nil, err
	}

	shows := make([]models.Show, 0, len(saved))
	for _, s := range saved {
		shows = append(shows, s.Show.model())
	}
	return shows, nil
}

type cursorArtistsPage struct {
	Artists cursorPage[artistObject] `json:"artists"`
}

// FollowedArtists returns every artist followed by the current user.
//
// The endpoint uses cursor-based pagination, wrapped under an "artists" key.
func (c *Client) FollowedArtists(ctx context.Context) ([]models.Artist, error) {
	fetch := func(ctx context.Context, u string) (cursorPage[artistObject], error) {
		var p cursorArtistsPage
		if err := c.get(ctx, u, &p); err != nil {
			return cursorPage[artistObject]{}, err
		}
		return p.Artists, nil
	}

	first, err := fetch(ctx, c.endpoint("/me/following?type=artist&limit=50"))
	if err != nil {
		return nil, err
	}
	items, err := collectAllCursor(ctx, first, fetch)
	if err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(items))
	for _, a := range items {
		artists = append(artists, a.model())
	}
	return artists, nil
}

// TopTracks returns the current user's top tracks.
func (c *Client) TopTracks(ctx context.Context) ([]models.Track, error) {
	var first page[trackObject]
	if err := c.get(ctx, c.endpoint("/me/top/tracks?limit=50"), &first); err != nil {
		return nil, err
	}
	items, err := collectAll(ctx, c, first)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	for _, t := range items {
		if track, ok := t.model(); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// RecentlyPlayedTracks returns the user's listening history, de-duplicated by
// track name.
func (c *Client) RecentlyPlayedTracks(ctx context.Context) ([]models.Track, error) {
	fetch := func(ctx context.Context, u string) (cursorPage[playHistoryObject], error) {
		var p cursorPage[playHistoryObject]
		err := c.get(ctx, u, &p)
		return p, err
	}

	first, err := fetch(ctx, c.endpoint("/me/player/recently-played?limit=50"))
	if err != nil {
		return nil, err
	}
	histories, err := collectAllCursor(ctx, first, fetch)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	seen := make(map[string]bool)
	for _, h := range histories {
		if seen[h.Track.Name] {
			continue
		}
		if track, ok := h.Track.model(); ok {
			seen[track.Name] = true
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// UserPlaylists returns every playlist of the current user.
func (c *Client) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var first page[playlistObject]
	if err := c.get(ctx, c.endpoint("/me/playlists?limit=50"), &first); err != nil {
		return nil, err
	}
	items, err := collectAll(ctx, c, first)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(items))
	for _, p := range items {
		playlists = append(playlists, p.model())
	}
	return playlists, nil
}

func (c *Client) checkIDs(ctx context.Context, path string, ids []string) ([]bool, error) {
	u := fmt.Sprintf("%s%s?ids=%s", c.baseURL, path, url.QueryEscape(strings.Join(ids, ",")))
	var contains []bool
	if err := c.get(ctx, u, &contains); err != nil {
		return nil, err
	}
	return contains, nil
}

// CheckSavedTracks reports, per id, whether the track is saved.
func (c *Client) CheckSavedTracks(ctx context.Context, ids []models.TrackID) ([]bool, error) {
	return c.checkIDs(ctx, "/me/tracks/contains", trackIDStrings(ids))
}

// CheckSavedAlbums reports, per id, whether the album is saved.
func (c *Client) CheckSavedAlbums(ctx context.Context, ids []models.AlbumID) ([]bool, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	return c.checkIDs(ctx, "/me/albums/contains", raw)
}

// CheckFollowArtists reports, per id, whether the artist is followed.
func (c *Client) CheckFollowArtists(ctx context.Context, ids []models.ArtistID) ([]bool, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	u := fmt.Sprintf("%s/me/following/contains?type=artist&ids=%s", c.baseURL, url.QueryEscape(strings.Join(raw, ",")))
	var follows []bool
	if err := c.get(ctx, u, &follows); err != nil {
		return nil, err
	}
	return follows, nil
}

// CheckFollowPlaylist reports whether the given users follow a playlist.
func (c *Client) CheckFollowPlaylist(ctx context.Context, playlist models.PlaylistID, users []models.UserID) ([]bool, error) {
	raw := make([]string, len(users))
	for i, id := range users {
		raw[i] = string(id)
	}
	u := fmt.Sprintf("%s/playlists/%s/followers/contains?ids=%s", c.baseURL, playlist, url.QueryEscape(strings.Join(raw, ",")))
	var follows []bool
	if err := c.get(ctx, u, &follows); err != nil {
		return nil, err
	}
	return follows, nil
}

// SaveTracks adds tracks to the user's library.
func (c *Client) SaveTracks(ctx context.Context, ids []models.TrackID) error {
	return c.do(ctx, http.MethodPut, c.endpoint("/me/tracks"), map[string]any{"ids": trackIDStrings(ids)}, nil)
}

// RemoveSavedTracks removes tracks from the user's library.
func (c *Client) RemoveSavedTracks(ctx context.Context, ids []models.TrackID) error {
	return c.do(ctx, http.MethodDelete, c.endpoint("/me/tracks"), map[string]any{"ids": trackIDStrings(ids)}, nil)
}

// SaveAlbums adds albums to the user's library.
func (c *Client) SaveAlbums(ctx context.Context, ids []models.AlbumID) error {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	return c.do(ctx, http.MethodPut, c.endpoint("/me/albums"), map[string]any{"ids": raw}, nil)
}

// RemoveSavedAlbums removes albums from the user's library.
func (c *Client) RemoveSavedAlbums(ctx context.Context, ids []models.AlbumID) error {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	return c.do(ctx, http.MethodDelete, c.endpoint("/me/albums"), map[string]any{"ids": raw}, nil)
}

// FollowArtists follows artists.
func (c *Client) FollowArtists(ctx context.Context, ids []models.ArtistID) error {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	return c.do(ctx, http.MethodPut, c.endpoint("/me/following?type=artist"), map[string]any{"ids": raw}, nil)
}

// UnfollowArtists unfollows artists.
func (c *Client) UnfollowArtists(ctx context.Context, ids []models.ArtistID) error {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	return c.do(ctx, http.MethodDelete, c.endpoint("/me/following?type=artist"), map[string]any{"ids": raw}, nil)
}

// FollowPlaylist follows a playlist.
func (c *Client) FollowPlaylist(ctx context.Context, id models.PlaylistID) error {
	return c.do(ctx, http.MethodPut, c.endpoint(fmt.Sprintf("/playlists/%s/followers", id)), nil, nil)
}

// UnfollowPlaylist unfollows (deletes, for owned playlists) a playlist.
func (c *Client) UnfollowPlaylist(ctx context.Context, id models.PlaylistID) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(fmt.Sprintf("/playlists/%s/followers", id)), nil, nil)
}

func trackIDStrings(ids []models.TrackID) []string {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	return raw
}
