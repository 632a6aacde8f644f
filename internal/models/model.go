package models

import (
	"fmt"
	"time"

	"spotd/internal/shared"
)

// bidi isolation characters used to render mixed-direction names safely in a
// left-to-right terminal
const (
	firstStrongIsolate  = "\u2068"
	popDirectionIsolate = "\u2069"
)

// BidiString wraps s in directional isolates so embedded right-to-left text
// can't reorder the surrounding line.
func BidiString(s string) string {
	return firstStrongIsolate + s + popDirectionIsolate
}

// Track represents a Spotify track.
type Track struct {
	ID       TrackID       `json:"id"`
	Name     string        `json:"name"`
	Artists  []Artist      `json:"artists"`
	Album    *Album        `json:"album,omitempty"`
	Duration time.Duration `json:"duration"`
	Explicit bool          `json:"explicit"`
	AddedAt  time.Time     `json:"added_at,omitzero"`
}

// ArtistNames returns the track's artist names joined with a comma.
func (t Track) ArtistNames() string {
	return shared.JoinNames(t.Artists, func(a Artist) string { return a.Name })
}

func (t Track) String() string {
	s := fmt.Sprintf("%s • %s", t.Name, t.ArtistNames())
	if t.Album != nil {
		s += fmt.Sprintf(" • %s", t.Album.Name)
	}
	return s
}

// BidiString returns the one-line display form with bidi isolation applied.
func (t Track) BidiString() string { return BidiString(t.String()) }

// Album represents a Spotify album.
type Album struct {
	ID          AlbumID   `json:"id"`
	Name        string    `json:"name"`
	ReleaseDate string    `json:"release_date"`
	Artists     []Artist  `json:"artists"`
	ImageURL    string    `json:"image_url,omitempty"`
	AddedAt     time.Time `json:"added_at,omitzero"`
}

func (a Album) String() string {
	names := shared.JoinNames(a.Artists, func(ar Artist) string { return ar.Name })
	return fmt.Sprintf("%s • %s", a.Name, names)
}

func (a Album) BidiString() string { return BidiString(a.String()) }

// Artist represents a Spotify artist.
type Artist struct {
	ID   ArtistID `json:"id"`
	Name string   `json:"name"`
}

func (a Artist) String() string     { return a.Name }
func (a Artist) BidiString() string { return BidiString(a.String()) }

// PlaylistOwner identifies the user owning a playlist.
type PlaylistOwner struct {
	DisplayName string `json:"display_name"`
	ID          UserID `json:"id"`
}

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID            PlaylistID    `json:"id"`
	Name          string        `json:"name"`
	Owner         PlaylistOwner `json:"owner"`
	Desc          string        `json:"desc"`
	Public        bool          `json:"public"`
	Collaborative bool          `json:"collaborative"`
	SnapshotID    string        `json:"snapshot_id"`
}

func (p Playlist) String() string {
	return fmt.Sprintf("%s • %s", p.Name, p.Owner.DisplayName)
}

func (p Playlist) BidiString() string { return BidiString(p.String()) }

// Show represents a Spotify show (podcast).
type Show struct {
	ID        ShowID `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

func (s Show) String() string     { return fmt.Sprintf("%s • %s", s.Name, s.Publisher) }
func (s Show) BidiString() string { return BidiString(s.String()) }

// Episode represents an episode of a show.
type Episode struct {
	ID          EpisodeID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration"`
	Show        *Show         `json:"show,omitempty"`
	ReleaseDate string        `json:"release_date"`
}

func (e Episode) String() string {
	if e.Show != nil {
		return fmt.Sprintf("%s • %s", e.Name, e.Show.Name)
	}
	return e.Name
}

func (e Episode) BidiString() string { return BidiString(e.String()) }

// Category represents a browse category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c Category) String() string { return c.Name }

// Device represents a Spotify playback device.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// User represents the current Spotify user.
type User struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"display_name"`
}

// SearchResults holds the data returned when searching a query.
type SearchResults struct {
	Tracks    []Track    `json:"tracks"`
	Artists   []Artist   `json:"artists"`
	Albums    []Album    `json:"albums"`
	Playlists []Playlist `json:"playlists"`
	Shows     []Show     `json:"shows"`
	Episodes  []Episode  `json:"episodes"`
}

// Item is a Spotify item together with its data, used for library mutations.
type Item struct {
	Track    *Track
	Album    *Album
	Artist   *Artist
	Playlist *Playlist
	Show     *Show
}

// ItemID returns the typed id of whichever item is set.
func (i Item) ItemID() ItemID {
	switch {
	case i.Track != nil:
		return i.Track.ID
	case i.Album != nil:
		return i.Album.ID
	case i.Artist != nil:
		return i.Artist.ID
	case i.Playlist != nil:
		return i.Playlist.ID
	case i.Show != nil:
		return i.Show.ID
	}
	return nil
}

// UserData holds the current user's library, recreated on every new session.
type UserData struct {
	User            *User
	Playlists       []Playlist
	FollowedArtists []Artist
	SavedAlbums     []Album
	SavedTracks     []Track
	SavedShows      []Show
	FolderNodes     []PlaylistFolderNode
}

// PlaylistsCreatedByUser returns the playlists owned by the current user.
func (d *UserData) PlaylistsCreatedByUser() []Playlist {
	if d.User == nil {
		return nil
	}
	var owned []Playlist
	for _, p := range d.Playlists {
		if p.Owner.ID == d.User.ID {
			owned = append(owned, p)
		}
	}
	return owned
}
