package models

import (
	"fmt"
	"time"
)

// Context is a fully hydrated playable scope. Exactly one group of fields is
// populated depending on Kind.
type Context struct {
	Kind Kind `json:"kind"`

	Playlist *Playlist `json:"playlist,omitempty"`
	Album    *Album    `json:"album,omitempty"`
	Artist   *Artist   `json:"artist,omitempty"`
	Show     *Show     `json:"show,omitempty"`

	// Tracks holds the context's tracks (playlist/album tracks, artist top
	// tracks, or the synthetic track list).
	Tracks []Track `json:"tracks"`

	// Artist-only data.
	ArtistAlbums   []Album  `json:"albums,omitempty"`
	RelatedArtists []Artist `json:"related_artists,omitempty"`

	// Show-only data.
	Episodes []Episode `json:"episodes,omitempty"`

	// Desc labels a synthetic track-list context.
	Desc string `json:"desc,omitempty"`
}

func playTime(tracks []Track) time.Duration {
	var total time.Duration
	for _, t := range tracks {
		total += t.Duration
	}
	return total
}

// Description returns a one-line summary of the context.
func (c *Context) Description() string {
	switch c.Kind {
	case KindPlaylist:
		return fmt.Sprintf("%s | %s | %d songs | %s",
			c.Playlist.Name, c.Playlist.Owner.DisplayName, len(c.Tracks), playTime(c.Tracks).Round(time.Second))
	case KindAlbum:
		return fmt.Sprintf("%s | %s | %d songs | %s",
			c.Album.Name, c.Album.ReleaseDate, len(c.Tracks), playTime(c.Tracks).Round(time.Second))
	case KindArtist:
		return fmt.Sprintf("%s | %d top tracks | %d albums", c.Artist.Name, len(c.Tracks), len(c.ArtistAlbums))
	case KindShow:
		return fmt.Sprintf("%s | %d episodes", c.Show.Name, len(c.Episodes))
	default:
		return fmt.Sprintf("%s | %d songs | %s", c.Desc, len(c.Tracks), playTime(c.Tracks).Round(time.Second))
	}
}

// RepeatState is the player's repeat mode.
type RepeatState string

const (
	RepeatOff     RepeatState = "off"
	RepeatTrack   RepeatState = "track"
	RepeatContext RepeatState = "context"
)

// Next cycles the repeat mode: off -> track -> context -> off.
func (s RepeatState) Next() RepeatState {
	switch s {
	case RepeatOff:
		return RepeatTrack
	case RepeatTrack:
		return RepeatContext
	default:
		return RepeatOff
	}
}

// PlaybackItem is the item of a playback snapshot: a track or an episode.
type PlaybackItem struct {
	Track   *Track   `json:"track,omitempty"`
	Episode *Episode `json:"episode,omitempty"`
}

// PlaybackContextRef points at the remote context a playback runs in.
type PlaybackContextRef struct {
	Kind Kind `json:"type"`
	URI  URI  `json:"uri"`
}

// CurrentPlayback is the server-authoritative playback snapshot.
type CurrentPlayback struct {
	Device       Device              `json:"device"`
	IsPlaying    bool                `json:"is_playing"`
	RepeatState  RepeatState         `json:"repeat_state"`
	ShuffleState bool                `json:"shuffle_state"`
	Progress     time.Duration       `json:"progress"`
	Item         *PlaybackItem       `json:"item,omitempty"`
	Context      *PlaybackContextRef `json:"context,omitempty"`
}

// Queue is the user's playback queue.
type Queue struct {
	CurrentlyPlaying *PlaybackItem  `json:"currently_playing,omitempty"`
	Items            []PlaybackItem `json:"queue"`
}

// PlaybackMetadata is the shadow projection of the playback state consumed by
// the UI while the authoritative snapshot lags behind a mutation.
type PlaybackMetadata struct {
	DeviceName   string      `json:"device_name"`
	DeviceID     string      `json:"device_id"`
	Volume       int         `json:"volume"`
	IsPlaying    bool        `json:"is_playing"`
	RepeatState  RepeatState `json:"repeat_state"`
	ShuffleState bool        `json:"shuffle_state"`

	// MuteState holds the pre-mute volume while the device is muted.
	MuteState *int `json:"mute_state,omitempty"`

	// FakeTrackRepeat indicates the local seek-to-zero track-repeat workaround
	// is active for this playback.
	FakeTrackRepeat bool `json:"fake_track_repeat"`
}

// PlaybackMetadataFrom projects a playback snapshot into its shadow form.
func PlaybackMetadataFrom(p *CurrentPlayback) *PlaybackMetadata {
	if p == nil {
		return nil
	}
	return &PlaybackMetadata{
		DeviceName:   p.Device.Name,
		DeviceID:     p.Device.ID,
		Volume:       p.Device.VolumePercent,
		IsPlaying:    p.IsPlaying,
		RepeatState:  p.RepeatState,
		ShuffleState: p.ShuffleState,
	}
}
