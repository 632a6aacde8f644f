// package models defines the data model for Spotify entities used across the daemon
package models

import (
	"fmt"
	"strings"
)

// URI identifies a Spotify item, for example spotify:track:6rqhFgbbKwnb9MLmUQDhG6
type URI string

// Kind names the type of a Spotify item as it appears in its URI.
type Kind string

const (
	KindTrack    Kind = "track"
	KindEpisode  Kind = "episode"
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindPlaylist Kind = "playlist"
	KindShow     Kind = "show"
	KindUser     Kind = "user"

	// KindTracks names a synthetic track-list context.
	KindTracks Kind = "tracks"
)

// ParseURI splits a spotify:{kind}:{id} URI into its kind and id.
func ParseURI(uri URI) (Kind, string, error) {
	parts := strings.Split(string(uri), ":")
	if len(parts) != 3 || parts[0] != "spotify" {
		return "", "", fmt.Errorf("invalid spotify URI: %s", uri)
	}
	return Kind(parts[1]), parts[2], nil
}

func makeURI(kind Kind, id string) URI {
	return URI(fmt.Sprintf("spotify:%s:%s", kind, id))
}

// TrackID is the base-62 identifier of a track.
type TrackID string

// AlbumID is the base-62 identifier of an album.
type AlbumID string

// ArtistID is the base-62 identifier of an artist.
type ArtistID string

// PlaylistID is the base-62 identifier of a playlist.
type PlaylistID string

// ShowID is the base-62 identifier of a show.
type ShowID string

// EpisodeID is the base-62 identifier of an episode.
type EpisodeID string

// UserID is the identifier of a Spotify user.
type UserID string

func (id TrackID) URI() URI    { return makeURI(KindTrack, string(id)) }
func (id AlbumID) URI() URI    { return makeURI(KindAlbum, string(id)) }
func (id ArtistID) URI() URI   { return makeURI(KindArtist, string(id)) }
func (id PlaylistID) URI() URI { return makeURI(KindPlaylist, string(id)) }
func (id ShowID) URI() URI     { return makeURI(KindShow, string(id)) }
func (id EpisodeID) URI() URI  { return makeURI(KindEpisode, string(id)) }
func (id UserID) URI() URI     { return makeURI(KindUser, string(id)) }

func (id TrackID) Kind() Kind    { return KindTrack }
func (id AlbumID) Kind() Kind    { return KindAlbum }
func (id ArtistID) Kind() Kind   { return KindArtist }
func (id PlaylistID) Kind() Kind { return KindPlaylist }
func (id ShowID) Kind() Kind     { return KindShow }
func (id EpisodeID) Kind() Kind  { return KindEpisode }

func (id TrackID) String() string    { return string(id) }
func (id AlbumID) String() string    { return string(id) }
func (id ArtistID) String() string   { return string(id) }
func (id PlaylistID) String() string { return string(id) }
func (id ShowID) String() string     { return string(id) }
func (id EpisodeID) String() string  { return string(id) }

// ItemID is a typed reference to a first-class Spotify item.
type ItemID interface {
	URI() URI
	Kind() Kind
	String() string
}

// PlayableID identifies an item that can be played directly: a track or an episode.
type PlayableID interface {
	ItemID
	playable()
}

func (id TrackID) playable()   {}
func (id EpisodeID) playable() {}

// TracksID names a synthetic track-list context, e.g. the user's liked tracks.
// It carries its own URI together with a human readable label.
type TracksID struct {
	TracksURI string `json:"uri"`
	Name      string `json:"name"`
}

func (id TracksID) URI() URI       { return URI(id.TracksURI) }
func (id TracksID) Kind() Kind     { return KindTracks }
func (id TracksID) String() string { return id.TracksURI }

// ContextID is a typed reference to a playable scope. Its URI is used as the
// context cache key.
type ContextID interface {
	URI() URI
	Kind() Kind
	String() string
	context()
}

func (id PlaylistID) context() {}
func (id AlbumID) context()    {}
func (id ArtistID) context()   {}
func (id ShowID) context()     {}
func (id TracksID) context()   {}

// Synthetic track-list contexts used by the daemon.
var (
	LikedTracksID          = TracksID{TracksURI: "tracks:user-liked-tracks", Name: "Liked Tracks"}
	TopTracksID            = TracksID{TracksURI: "tracks:user-top-tracks", Name: "Top Tracks"}
	RecentlyPlayedTracksID = TracksID{TracksURI: "tracks:user-recently-played-tracks", Name: "Recently Played Tracks"}
)

// RadioTracksID returns the synthetic context id of a radio derived from a seed.
func RadioTracksID(seedURI, seedName string) TracksID {
	return TracksID{TracksURI: "radio:" + seedURI, Name: seedName + " Radio"}
}

// ContextIDFromURI converts a playback context URI into a typed ContextID.
func ContextIDFromURI(uri URI) (ContextID, error) {
	kind, id, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindPlaylist:
		return PlaylistID(id), nil
	case KindAlbum:
		return AlbumID(id), nil
	case KindArtist:
		return ArtistID(id), nil
	case KindShow:
		return ShowID(id), nil
	default:
		return nil, fmt.Errorf("URI %s does not name a playable context", uri)
	}
}
