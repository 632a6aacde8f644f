package api

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"spotd/internal/models"
)

// Playlist returns a playlist's metadata.
func (c *Client) Playlist(ctx context.Context, id models.PlaylistID) (*models.Playlist, error) {
	var p playlistObject
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/playlists/%s", id)), &p); err != nil {
		return nil, err
	}
	playlist := p.model()
	return &playlist, nil
}

// PlaylistContext returns the fully hydrated playlist context: the playlist
// together with all of its playable tracks.
func (c *Client) PlaylistContext(ctx context.Context, id models.PlaylistID) (*models.Context, error) {
	c.logger.Info("get playlist context", "uri", id.URI())

	var p playlistObject
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/playlists/%s", id)), &p); err != nil {
		return nil, err
	}

	var items []playlistItemObject
	if p.Tracks != nil {
		var err error
		if items, err = collectAll(ctx, c, *p.Tracks); err != nil {
			return nil, err
		}
	}

	var tracks []models.Track
	for _, item := range items {
		if item.Track == nil {
			continue
		}
		if track, ok := item.Track.model(); ok {
			track.AddedAt = parseAddedAt(item.AddedAt)
			tracks = append(tracks, track)
		}
	}

	playlist := p.model()
	return &models.Context{Kind: models.KindPlaylist, Playlist: &playlist, Tracks: tracks}, nil
}

type albumWithTracks struct {
	albumObject
	Tracks page[trackObject] `json:"tracks"`
}

// AlbumContext returns the fully hydrated album context.
func (c *Client) AlbumContext(ctx context.Context, id models.AlbumID) (*models.Context, error) {
	c.logger.Info("get album context", "uri", id.URI())

	var a albumWithTracks
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/albums/%s", id)), &a); err != nil {
		return nil, err
	}

	album := a.albumObject.model()

	items, err := collectAll(ctx, c, a.Tracks)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	for _, t := range items {
		if track, ok := t.model(); ok {
			// album tracks are simplified objects without an album reference
			track.Album = &album
			tracks = append(tracks, track)
		}
	}

	return &models.Context{Kind: models.KindAlbum, Album: &album, Tracks: tracks}, nil
}

// ArtistContext returns the fully hydrated artist context: top tracks, albums
// and related artists.
func (c *Client) ArtistContext(ctx context.Context, id models.ArtistID) (*models.Context, error) {
	c.logger.Info("get artist context", "uri", id.URI())

	var a artistObject
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/artists/%s", id)), &a); err != nil {
		return nil, err
	}
	artist := a.model()

	topTracks, err := c.ArtistTopTracks(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := c.ArtistRelatedArtists(ctx, id)
	if err != nil {
		return nil, err
	}
	albums, err := c.ArtistAlbums(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.Context{
		Kind:           models.KindArtist,
		Artist:         &artist,
		Tracks:         topTracks,
		ArtistAlbums:   albums,
		RelatedArtists: related,
	}, nil
}

// ArtistTopTracks returns an artist's top tracks.
func (c *Client) ArtistTopTracks(ctx context.Context, id models.ArtistID) ([]models.Track, error) {
	var resp struct {
		Tracks []trackObject `json:"tracks"`
	}
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/artists/%s/top-tracks?market=from_token", id)), &resp); err != nil {
		return nil, err
	}

	var tracks []models.Track
	for _, t := range resp.Tracks {
		if track, ok := t.model(); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// ArtistRelatedArtists returns artists related to an artist.
func (c *Client) ArtistRelatedArtists(ctx context.Context, id models.ArtistID) ([]models.Artist, error) {
	var resp struct {
		Artists []artistObject `json:"artists"`
	}
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/artists/%s/related-artists", id)), &resp); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(resp.Artists))
	for _, a := range resp.Artists {
		artists = append(artists, a.model())
	}
	return artists, nil
}

// ArtistAlbums returns an artist's albums and singles, sorted by release date
// with duplicated names removed.
func (c *Client) ArtistAlbums(ctx context.Context, id models.ArtistID) ([]models.Album, error) {
	var albums []models.Album
	for _, group := range []string{"single", "album"} {
		var first page[albumObject]
		u := c.endpoint(fmt.Sprintf("/artists/%s/albums?include_groups=%s&limit=50", id, group))
		if err := c.get(ctx, u, &first); err != nil {
			return nil, err
		}
		items, err := collectAll(ctx, c, first)
		if err != nil {
			return nil, err
		}
		for _, a := range items {
			if a.ID != "" {
				albums = append(albums, a.model())
			}
		}
	}
	return cleanUpArtistAlbums(albums), nil
}

// cleanUpArtistAlbums sorts albums by release date and removes albums with
// duplicated names, keeping the most recent release.
func cleanUpArtistAlbums(albums []models.Album) []models.Album {
	sort.SliceStable(albums, func(i, j int) bool {
		return albums[i].ReleaseDate < albums[j].ReleaseDate
	})

	seen := make(map[string]bool)
	var cleaned []models.Album
	for i := len(albums) - 1; i >= 0; i-- {
		if !seen[albums[i].Name] {
			seen[albums[i].Name] = true
			cleaned = append(cleaned, albums[i])
		}
	}
	return cleaned
}

// Show returns a show's metadata.
func (c *Client) Show(ctx context.Context, id models.ShowID) (*models.Show, error) {
	var s showObject
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/shows/%s", id)), &s); err != nil {
		return nil, err
	}
	show := s.model()
	return &show, nil
}

// ShowEpisodes returns every episode of a show.
func (c *Client) ShowEpisodes(ctx context.Context, id models.ShowID) ([]models.Episode, error) {
	var first page[episodeObject]
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/shows/%s/episodes?limit=50", id)), &first); err != nil {
		return nil, err
	}
	items, err := collectAll(ctx, c, first)
	if err != nil {
		return nil, err
	}

	episodes := make([]models.Episode, 0, len(items))
	for _, e := range items {
		episodes = append(episodes, e.model())
	}
	return episodes, nil
}

// ShowContext returns the fully hydrated show context.
func (c *Client) ShowContext(ctx context.Context, id models.ShowID) (*models.Context, error) {
	c.logger.Info("get show context", "uri", id.URI())

	show, err := c.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	episodes, err := c.ShowEpisodes(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Context{Kind: models.KindShow, Show: show, Episodes: episodes}, nil
}

type searchResponse struct {
	Tracks    *page[trackObject]    `json:"tracks"`
	Artists   *page[artistObject]   `json:"artists"`
	Albums    *page[albumObject]    `json:"albums"`
	Playlists *page[playlistObject] `json:"playlists"`
	Shows     *page[showObject]     `json:"shows"`
	Episodes  *page[episodeObject]  `json:"episodes"`
}

// Search searches tracks, artists, albums and playlists matching a query.
func (c *Client) Search(ctx context.Context, query string) (*models.SearchResults, error) {
	resp, err := c.searchTypes(ctx, query, "track,artist,album,playlist")
	if err != nil {
		return nil, err
	}

	results := &models.SearchResults{}
	if resp.Tracks != nil {
		for _, t := range resp.Tracks.Items {
			if track, ok := t.model(); ok {
				results.Tracks = append(results.Tracks, track)
			}
		}
	}
	if resp.Artists != nil {
		for _, a := range resp.Artists.Items {
			results.Artists = append(results.Artists, a.model())
		}
	}
	if resp.Albums != nil {
		for _, a := range resp.Albums.Items {
			if a.ID != "" {
				results.Albums = append(results.Albums, a.model())
			}
		}
	}
	if resp.Playlists != nil {
		for _, p := range resp.Playlists.Items {
			results.Playlists = append(results.Playlists, p.model())
		}
	}
	return results, nil
}

// SearchType searches a single item type and returns the matching results.
func (c *Client) SearchType(ctx context.Context, query string, kind models.Kind) (*models.SearchResults, error) {
	resp, err := c.searchTypes(ctx, query, string(kind))
	if err != nil {
		return nil, err
	}

	results := &models.SearchResults{}
	switch kind {
	case models.KindTrack:
		if resp.Tracks != nil {
			for _, t := range resp.Tracks.Items {
				if track, ok := t.model(); ok {
					results.Tracks = append(results.Tracks, track)
				}
			}
		}
	case models.KindArtist:
		if resp.Artists != nil {
			for _, a := range resp.Artists.Items {
				results.Artists = append(results.Artists, a.model())
			}
		}
	case models.KindAlbum:
		if resp.Albums != nil {
			for _, a := range resp.Albums.Items {
				if a.ID != "" {
					results.Albums = append(results.Albums, a.model())
				}
			}
		}
	case models.KindPlaylist:
		if resp.Playlists != nil {
			for _, p := range resp.Playlists.Items {
				results.Playlists = append(results.Playlists, p.model())
			}
		}
	case models.KindShow:
		if resp.Shows != nil {
			for _, s := range resp.Shows.Items {
				results.Shows = append(results.Shows, s.model())
			}
		}
	case models.KindEpisode:
		if resp.Episodes != nil {
			for _, e := range resp.Episodes.Items {
				results.Episodes = append(results.Episodes, e.model())
			}
		}
	}
	return results, nil
}

func (c *Client) searchTypes(ctx context.Context, query, types string) (*searchResponse, error) {
	u := c.endpoint(fmt.Sprintf("/search?q=%s&type=%s", url.QueryEscape(query), types))
	var resp searchResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Categories returns Spotify's browse categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var resp struct {
		Categories page[categoryObject] `json:"categories"`
	}
	if err := c.get(ctx, c.endpoint("/browse/categories?limit=50"), &resp); err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(resp.Categories.Items))
	for _, cat := range resp.Categories.Items {
		categories = append(categories, models.Category{ID: cat.ID, Name: cat.Name})
	}
	return categories, nil
}

// CategoryPlaylists returns the browse playlists of a category.
func (c *Client) CategoryPlaylists(ctx context.Context, categoryID string) ([]models.Playlist, error) {
	var resp struct {
		Playlists page[playlistObject] `json:"playlists"`
	}
	if err := c.get(ctx, c.endpoint(fmt.Sprintf("/browse/categories/%s/playlists?limit=50", categoryID)), &resp); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(resp.Playlists.Items))
	for _, p := range resp.Playlists.Items {
		playlists = append(playlists, p.model())
	}
	return playlists, nil
}

// Tracks returns full track data for the given ids (up to 50 per call).
func (c *Client) Tracks(ctx context.Context, ids []models.TrackID) ([]models.Track, error) {
	var tracks []models.Track
	for _, chunk := range chunkIDs(trackIDStrings(ids), 50) {
		var resp struct {
			Tracks []trackObject `json:"tracks"`
		}
		u := c.endpoint("/tracks?ids=" + url.QueryEscape(joinIDs(chunk)))
		if err := c.get(ctx, u, &resp); err != nil {
			return nil, err
		}
		for _, t := range resp.Tracks {
			if track, ok := t.model(); ok {
				tracks = append(tracks, track)
			}
		}
	}
	return tracks, nil
}
