package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spotd/internal/models"
	"spotd/internal/shared"
	"spotd/internal/state"
)

func requestName(req Request) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", req), "client.")
}

// handleRequest runs a single client request against the facade and writes
// the outcome into the state store. Handlers are idempotent with respect to
// the store so completions may interleave freely.
func (c *Client) handleRequest(ctx context.Context, req Request) error {
	timer := time.Now()

	var err error
	switch r := req.(type) {
	case GetCurrentUser:
		err = c.handleGetCurrentUser(ctx)
	case GetDevices:
		err = c.handleGetDevices(ctx)
	case GetBrowseCategories:
		var categories []models.Category
		if categories, err = c.api.Categories(ctx); err == nil {
			c.state.WriteData(func(d *state.AppData) {
				d.Browse.Categories = categories
			})
		}
	case GetBrowseCategoryPlaylists:
		var playlists []models.Playlist
		if playlists, err = c.api.CategoryPlaylists(ctx, r.Category.ID); err == nil {
			c.state.WriteData(func(d *state.AppData) {
				d.Browse.CategoryPlaylists[r.Category.ID] = playlists
			})
		}
	case GetUserPlaylists:
		var playlists []models.Playlist
		if playlists, err = c.api.UserPlaylists(ctx); err == nil {
			c.state.WriteData(func(d *state.AppData) {
				d.UserData.Playlists = playlists
			})
		}
	case GetUserSavedAlbums:
		var albums []models.Album
		if albums, err = c.api.SavedAlbums(ctx); err == nil {
			c.state.WriteData(func(d *state.AppData) {
				d.UserData.SavedAlbums = dedupAlbums(albums)
			})
		}
	case GetUserSavedShows:
		var shows []models.Show
		if shows, err = c.api.SavedShows(ctx); err == nil {
			c.state.WriteData(func(d *state.AppData) {
				d.UserData.SavedShows = shows
			})
		}
	case GetUserFollowedArtists:
		var artists []models.Artist
		if artists, err = c.api.FollowedArtists(ctx); err == nil {
			c.state.WriteData(func(d *state.AppData) {
				d.UserData.FollowedArtists = dedupArtists(artists)
			})
		}
	case GetUserSavedTracks:
		err = c.handleGetUserSavedTracks(ctx)
	case GetUserTopTracks:
		err = c.handleTracksContext(ctx, models.TopTracksID, "User's top tracks", c.api.TopTracks)
	case GetUserRecentlyPlayedTracks:
		err = c.handleTracksContext(ctx, models.RecentlyPlayedTracksID, "User's recently played tracks", c.api.RecentlyPlayedTracks)
	case GetContext:
		err = c.handleGetContext(ctx, r.ID)
	case GetCurrentPlayback:
		err = c.UpdateCurrentPlaybackState(ctx)
	case GetCurrentUserQueue:
		var queue *models.Queue
		if queue, err = c.api.UserQueue(ctx); err == nil {
			c.state.WritePlayer(func(p *state.PlayerState) {
				p.Queue = queue
			})
		}
	case GetRadioTracks:
		err = c.handleGetRadioTracks(ctx, r)
	case Search:
		err = c.handleSearch(ctx, r.Query)
	case AddPlayableToQueue:
		err = c.api.AddToQueue(ctx, r.ID)
	case AddPlayableToPlaylist:
		err = c.addPlayableToPlaylist(ctx, r.Playlist, r.ID)
	case DeleteTrackFromPlaylist:
		err = c.deleteTrackFromPlaylist(ctx, r.Playlist, r.Track)
	case ReorderPlaylistItems:
		err = c.reorderPlaylistItems(ctx, r)
	case AddToLibrary:
		err = c.addToLibrary(ctx, r.Item)
	case DeleteFromLibrary:
		err = c.deleteFromLibrary(ctx, r.ID)
	case GetLyrics:
		err = c.handleGetLyrics(ctx, r.TrackID)
	case CreatePlaylist:
		err = c.handleCreatePlaylist(ctx, r)
	case Player:
		if err = c.HandlePlayerRequest(ctx, r.Request); err == nil {
			c.UpdatePlayback(ctx)
		}
	case ConnectDevice:
		c.ConnectDevice(ctx, r.ID)
	case RestartIntegratedClient:
		c.Send(NewStreamingConnection{})
	default:
		err = fmt.Errorf("%w: unknown request %s", shared.ErrInvalidRequest, requestName(req))
	}

	if err != nil {
		return err
	}

	c.logger.Debug("handled client request", "request", requestName(req), "took", time.Since(timer))
	return nil
}

func (c *Client) handleGetCurrentUser(ctx context.Context) error {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return err
	}
	c.state.WriteData(func(d *state.AppData) {
		d.UserData.User = user
	})
	return nil
}

func (c *Client) handleGetDevices(ctx context.Context) error {
	devices, err := c.api.Devices(ctx)
	if err != nil {
		return err
	}
	c.state.WritePlayer(func(p *state.PlayerState) {
		p.Devices = devices
	})
	return nil
}

func (c *Client) handleGetUserSavedTracks(ctx context.Context) error {
	tracks, err := c.api.SavedTracks(ctx)
	if err != nil {
		return err
	}
	tracks = dedupTracks(tracks)
	c.state.WriteData(func(d *state.AppData) {
		d.Caches.Context.Add(string(models.LikedTracksID.URI()), &models.Context{
			Kind:   models.KindTracks,
			Tracks: tracks,
			Desc:   "User's liked tracks",
		})
		d.UserData.SavedTracks = tracks
	})
	return nil
}

// handleTracksContext fills a synthetic track-list context unless cached.
func (c *Client) handleTracksContext(ctx context.Context, id models.TracksID, desc string, fetch func(context.Context) ([]models.Track, error)) error {
	uri := string(id.URI())

	cached := false
	c.state.ReadData(func(d *state.AppData) {
		cached = d.Caches.Context.Contains(uri)
	})
	if cached {
		return nil
	}

	tracks, err := fetch(ctx)
	if err != nil {
		return err
	}
	c.state.WriteData(func(d *state.AppData) {
		d.Caches.Context.Add(uri, &models.Context{Kind: models.KindTracks, Tracks: tracks, Desc: desc})
	})
	return nil
}

func (c *Client) handleGetContext(ctx context.Context, id models.ContextID) error {
	uri := string(id.URI())

	cached := false
	c.state.ReadData(func(d *state.AppData) {
		cached = d.Caches.Context.Contains(uri)
	})
	if cached {
		return nil
	}

	var fetched *models.Context
	var err error
	switch typed := id.(type) {
	case models.PlaylistID:
		fetched, err = c.api.PlaylistContext(ctx, typed)
	case models.AlbumID:
		fetched, err = c.api.AlbumContext(ctx, typed)
	case models.ArtistID:
		fetched, err = c.api.ArtistContext(ctx, typed)
	case models.ShowID:
		fetched, err = c.api.ShowContext(ctx, typed)
	case models.TracksID:
		return fmt.Errorf("%w: GetContext request for tracks context is not supported", shared.ErrInvalidRequest)
	default:
		return fmt.Errorf("%w: unknown context id %s", shared.ErrInvalidRequest, id)
	}
	if err != nil {
		return err
	}

	c.state.WriteData(func(d *state.AppData) {
		d.Caches.Context.Add(uri, fetched)
	})
	return nil
}

func (c *Client) handleGetRadioTracks(ctx context.Context, r GetRadioTracks) error {
	id := models.RadioTracksID(r.SeedURI, r.SeedName)
	uri := string(id.URI())

	cached := false
	c.state.ReadData(func(d *state.AppData) {
		cached = d.Caches.Context.Contains(uri)
	})
	if cached {
		return nil
	}

	tracks, err := c.api.RadioTracks(ctx, r.SeedURI)
	if err != nil {
		return err
	}
	c.state.WriteData(func(d *state.AppData) {
		d.Caches.Context.Add(uri, &models.Context{Kind: models.KindTracks, Tracks: tracks, Desc: id.Name})
	})
	return nil
}

func (c *Client) handleSearch(ctx context.Context, query string) error {
	cached := false
	c.state.ReadData(func(d *state.AppData) {
		cached = d.Caches.Search.Contains(query)
	})
	if cached {
		return nil
	}

	results, err := c.api.Search(ctx, query)
	if err != nil {
		return err
	}
	c.state.WriteData(func(d *state.AppData) {
		d.Caches.Search.Add(query, results)
	})
	return nil
}

func (c *Client) handleGetLyrics(ctx context.Context, trackID models.TrackID) error {
	track := c.state.CurrentPlayingTrack()
	if track == nil || track.ID != trackID {
		tracks, err := c.api.Tracks(ctx, []models.TrackID{trackID})
		if err != nil {
			return err
		}
		if len(tracks) == 0 {
			return fmt.Errorf("%w: track %s", shared.ErrNotFound, trackID)
		}
		track = &tracks[0]
	}

	query := fmt.Sprintf("%s %s", track.Name, track.ArtistNames())

	cached := false
	c.state.ReadData(func(d *state.AppData) {
		cached = d.Caches.Lyrics.Contains(query)
	})
	if cached {
		return nil
	}

	lyric, found, err := c.api.GetLyric(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to get lyric for query %q: %w", query, err)
	}
	c.state.WriteData(func(d *state.AppData) {
		d.Caches.Lyrics.Add(query, state.LyricResult{Found: found, Lyric: lyric})
	})
	return nil
}

func (c *Client) handleCreatePlaylist(ctx context.Context, r CreatePlaylist) error {
	user := c.state.CurrentUser()
	if user == nil {
		return fmt.Errorf("%w: current user is unknown", shared.ErrNotAuthenticated)
	}

	playlist, err := c.api.CreatePlaylist(ctx, user.ID, r.Name, r.Public, r.Collab, r.Desc)
	if err != nil {
		return err
	}
	c.state.WriteData(func(d *state.AppData) {
		d.UserData.Playlists = append([]models.Playlist{*playlist}, d.UserData.Playlists...)
	})
	return nil
}

// addPlayableToPlaylist removes all occurrences of the item before adding it
// so the playlist cannot accumulate duplicates, then drops the playlist's
// context cache entry to force refetching fresh data.
func (c *Client) addPlayableToPlaylist(ctx context.Context, playlist models.PlaylistID, id models.PlayableID) error {
	if err := c.api.RemoveAllOccurrences(ctx, playlist, []models.PlayableID{id}); err != nil {
		return err
	}
	if err := c.api.AddItemsToPlaylist(ctx, playlist, []models.PlayableID{id}); err != nil {
		return err
	}

	c.state.WriteData(func(d *state.AppData) {
		d.Caches.Context.Remove(string(playlist.URI()))
	})
	return nil
}

// deleteTrackFromPlaylist removes a track remotely and patches the cached
// playlist context in place.
func (c *Client) deleteTrackFromPlaylist(ctx context.Context, playlist models.PlaylistID, track models.TrackID) error {
	if err := c.api.RemoveAllOccurrences(ctx, playlist, []models.PlayableID{track}); err != nil {
		return err
	}

	c.state.WriteData(func(d *state.AppData) {
		if cached, ok := d.Caches.Context.Peek(string(playlist.URI())); ok {
			kept := cached.Tracks[:0]
			for _, t := range cached.Tracks {
				if t.ID != track {
					kept = append(kept, t)
				}
			}
			cached.Tracks = kept
		}
	})
	return nil
}

func (c *Client) reorderPlaylistItems(ctx context.Context, r ReorderPlaylistItems) error {
	// The remote API wants an "insert before" index, one past the insert
	// position when the range moves forward.
	insertBefore := r.InsertIndex
	if r.InsertIndex > r.RangeStart {
		insertBefore = r.InsertIndex + 1
	}

	if err := c.api.ReorderPlaylistItems(ctx, r.Playlist, r.RangeStart, insertBefore, r.RangeLength, r.SnapshotID); err != nil {
		return err
	}

	c.state.WriteData(func(d *state.AppData) {
		if cached, ok := d.Caches.Context.Peek(string(r.Playlist.URI())); ok {
			if r.RangeStart < len(cached.Tracks) && r.InsertIndex < len(cached.Tracks) {
				track := cached.Tracks[r.RangeStart]
				cached.Tracks = append(cached.Tracks[:r.RangeStart], cached.Tracks[r.RangeStart+1:]...)
				rest := append([]models.Track{track}, cached.Tracks[r.InsertIndex:]...)
				cached.Tracks = append(cached.Tracks[:r.InsertIndex], rest...)
			}
		}
	})
	return nil
}

// addToLibrary adds an item to the user's library unless it is already there,
// keeping the in-memory user data duplicate free.
func (c *Client) addToLibrary(ctx context.Context, item models.Item) error {
	switch {
	case item.Track != nil:
		contains, err := c.api.CheckSavedTracks(ctx, []models.TrackID{item.Track.ID})
		if err != nil {
			return err
		}
		if len(contains) > 0 && !contains[0] {
			if err := c.api.SaveTracks(ctx, []models.TrackID{item.Track.ID}); err != nil {
				return err
			}
			c.state.WriteData(func(d *state.AppData) {
				d.UserData.SavedTracks = append([]models.Track{*item.Track}, d.UserData.SavedTracks...)
			})
		}
	case item.Album != nil:
		contains, err := c.api.CheckSavedAlbums(ctx, []models.AlbumID{item.Album.ID})
		if err != nil {
			return err
		}
		if len(contains) > 0 && !contains[0] {
			if err := c.api.SaveAlbums(ctx, []models.AlbumID{item.Album.ID}); err != nil {
				return err
			}
			c.state.WriteData(func(d *state.AppData) {
				d.UserData.SavedAlbums = append([]models.Album{*item.Album}, d.UserData.SavedAlbums...)
			})
		}
	case item.Artist != nil:
		follows, err := c.api.CheckFollowArtists(ctx, []models.ArtistID{item.Artist.ID})
		if err != nil {
			return err
		}
		if len(follows) > 0 && !follows[0] {
			if err := c.api.FollowArtists(ctx, []models.ArtistID{item.Artist.ID}); err != nil {
				return err
			}
			c.state.WriteData(func(d *state.AppData) {
				d.UserData.FollowedArtists = append([]models.Artist{*item.Artist}, d.UserData.FollowedArtists...)
			})
		}
	case item.Playlist != nil:
		user := c.state.CurrentUser()
		if user == nil {
			return fmt.Errorf("%w: current user is unknown", shared.ErrNotAuthenticated)
		}
		follows, err := c.api.CheckFollowPlaylist(ctx, item.Playlist.ID, []models.UserID{user.ID})
		if err != nil {
			return err
		}
		if len(follows) > 0 && !follows[0] {
			if err := c.api.FollowPlaylist(ctx, item.Playlist.ID); err != nil {
				return err
			}
			c.state.WriteData(func(d *state.AppData) {
				d.UserData.Playlists = append([]models.Playlist{*item.Playlist}, d.UserData.Playlists...)
			})
		}
	default:
		return fmt.Errorf("%w: empty library item", shared.ErrInvalidRequest)
	}
	return nil
}

func (c *Client) deleteFromLibrary(ctx context.Context, id models.ItemID) error {
	switch typed := id.(type) {
	case models.TrackID:
		c.state.WriteData(func(d *state.AppData) {
			d.UserData.SavedTracks = deleteTrackByID(d.UserData.SavedTracks, typed)
		})
		return c.api.RemoveSavedTracks(ctx, []models.TrackID{typed})
	case models.AlbumID:
		c.state.WriteData(func(d *state.AppData) {
			kept := d.UserData.SavedAlbums[:0]
			for _, a := range d.UserData.SavedAlbums {
				if a.ID != typed {
					kept = append(kept, a)
				}
			}
			d.UserData.SavedAlbums = kept
		})
		return c.api.RemoveSavedAlbums(ctx, []models.AlbumID{typed})
	case models.ArtistID:
		c.state.WriteData(func(d *state.AppData) {
			kept := d.UserData.FollowedArtists[:0]
			for _, a := range d.UserData.FollowedArtists {
				if a.ID != typed {
					kept = append(kept, a)
				}
			}
			d.UserData.FollowedArtists = kept
		})
		return c.api.UnfollowArtists(ctx, []models.ArtistID{typed})
	case models.PlaylistID:
		c.state.WriteData(func(d *state.AppData) {
			kept := d.UserData.Playlists[:0]
			for _, p := range d.UserData.Playlists {
				if p.ID != typed {
					kept = append(kept, p)
				}
			}
			d.UserData.Playlists = kept
		})
		return c.api.UnfollowPlaylist(ctx, typed)
	default:
		return fmt.Errorf("%w: cannot delete %s from the library", shared.ErrInvalidRequest, id)
	}
}

func deleteTrackByID(tracks []models.Track, id models.TrackID) []models.Track {
	kept := tracks[:0]
	for _, t := range tracks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	return kept
}

func dedupTracks(tracks []models.Track) []models.Track {
	seen := make(map[models.TrackID]bool, len(tracks))
	kept := tracks[:0]
	for _, t := range tracks {
		if !seen[t.ID] {
			seen[t.ID] = true
			kept = append(kept, t)
		}
	}
	return kept
}

func dedupAlbums(albums []models.Album) []models.Album {
	seen := make(map[models.AlbumID]bool, len(albums))
	kept := albums[:0]
	for _, a := range albums {
		if !seen[a.ID] {
			seen[a.ID] = true
			kept = append(kept, a)
		}
	}
	return kept
}

func dedupArtists(artists []models.Artist) []models.Artist {
	seen := make(map[models.ArtistID]bool, len(artists))
	kept := artists[:0]
	for _, a := range artists {
		if !seen[a.ID] {
			seen[a.ID] = true
			kept = append(kept, a)
		}
	}
	return kept
}
