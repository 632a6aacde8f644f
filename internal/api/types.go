package api

import (
	"time"

	"spotd/internal/models"
)

// Wire types mirroring the remote schema. Conversion into the flat model
// types happens at ingestion; tracks that fail the playability check are
// dropped there.

type imageObject struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type artistObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a artistObject) model() models.Artist {
	return models.Artist{ID: models.ArtistID(a.ID), Name: a.Name}
}

type albumObject struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Artists     []artistObject `json:"artists"`
	Images      []imageObject  `json:"images"`
}

func (a albumObject) model() models.Album {
	album := models.Album{
		ID:          models.AlbumID(a.ID),
		Name:        a.Name,
		ReleaseDate: a.ReleaseDate,
	}
	if len(a.Images) > 0 {
		album.ImageURL = a.Images[0].URL
	}
	for _, ar := range a.Artists {
		album.Artists = append(album.Artists, ar.model())
	}
	return album
}

type trackObject struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Artists    []artistObject `json:"artists"`
	Album      *albumObject   `json:"album"`
	DurationMS int64          `json:"duration_ms"`
	Explicit   bool           `json:"explicit"`
	IsPlayable *bool          `json:"is_playable"`
}

// model converts a track object, reporting false for tracks that are not
// playable (missing id or an explicit is_playable=false).
func (t trackObject) model() (models.Track, bool) {
	if t.ID == "" || (t.IsPlayable != nil && !*t.IsPlayable) {
		return models.Track{}, false
	}
	track := models.Track{
		ID:       models.TrackID(t.ID),
		Name:     t.Name,
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
		Explicit: t.Explicit,
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, a.model())
	}
	if t.Album != nil && t.Album.ID != "" {
		album := t.Album.model()
		track.Album = &album
	}
	return track, true
}

type showObject struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

func (s showObject) model() models.Show {
	return models.Show{ID: models.ShowID(s.ID), Name: s.Name, Publisher: s.Publisher}
}

type episodeObject struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	DurationMS  int64       `json:"duration_ms"`
	ReleaseDate string      `json:"release_date"`
	Show        *showObject `json:"show"`
}

func (e episodeObject) model() models.Episode {
	episode := models.Episode{
		ID:          models.EpisodeID(e.ID),
		Name:        e.Name,
		Description: e.Description,
		Duration:    time.Duration(e.DurationMS) * time.Millisecond,
		ReleaseDate: e.ReleaseDate,
	}
	if e.Show != nil {
		show := e.Show.model()
		episode.Show = &show
	}
	return episode
}

type ownerObject struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistObject struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Owner         ownerObject     `json:"owner"`
	Public        bool            `json:"public"`
	Collaborative bool            `json:"collaborative"`
	SnapshotID    string          `json:"snapshot_id"`
	Tracks        *playlistTracks `json:"tracks"`
}

type playlistTracks = page[playlistItemObject]

func (p playlistObject) model() models.Playlist {
	return models.Playlist{
		ID:            models.PlaylistID(p.ID),
		Name:          p.Name,
		Desc:          p.Description,
		Owner:         models.PlaylistOwner{ID: models.UserID(p.Owner.ID), DisplayName: p.Owner.DisplayName},
		Public:        p.Public,
		Collaborative: p.Collaborative,
		SnapshotID:    p.SnapshotID,
	}
}

type playlistItemObject struct {
	AddedAt string       `json:"added_at"`
	Track   *trackObject `json:"track"`
}

type savedTrackObject struct {
	AddedAt string      `json:"added_at"`
	Track   trackObject `json:"track"`
}

type savedAlbumObject struct {
	AddedAt string      `json:"added_at"`
	Album   albumObject `json:"album"`
}

type savedShowObject struct {
	AddedAt string     `json:"added_at"`
	Show    showObject `json:"show"`
}

type playHistoryObject struct {
	Track    trackObject `json:"track"`
	PlayedAt string      `json:"played_at"`
}

type categoryObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userObject struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type deviceObject struct {
	ID            *string `json:"id"`
	Name          string  `json:"name"`
	IsActive      bool    `json:"is_active"`
	VolumePercent *int    `json:"volume_percent"`
}

func (d deviceObject) model() models.Device {
	dev := models.Device{Name: d.Name, IsActive: d.IsActive}
	if d.ID != nil {
		dev.ID = *d.ID
	}
	if d.VolumePercent != nil {
		dev.VolumePercent = *d.VolumePercent
	}
	return dev
}

type contextObject struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type playbackItemObject struct {
	Type string `json:"type"`
	trackObject
	// Episode-only fields; Description and ReleaseDate overlap is resolved by
	// checking Type.
	Description string      `json:"description"`
	ReleaseDate string      `json:"release_date"`
	Show        *showObject `json:"show"`
}

func (p *playbackItemObject) model() *models.PlaybackItem {
	if p == nil {
		return nil
	}
	if p.Type == "episode" {
		e := episodeObject{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			DurationMS:  p.DurationMS,
			ReleaseDate: p.ReleaseDate,
			Show:        p.Show,
		}
		episode := e.model()
		return &models.PlaybackItem{Episode: &episode}
	}
	if track, ok := p.trackObject.model(); ok {
		return &models.PlaybackItem{Track: &track}
	}
	return nil
}

type playbackObject struct {
	Device       deviceObject        `json:"device"`
	IsPlaying    bool                `json:"is_playing"`
	RepeatState  string              `json:"repeat_state"`
	ShuffleState bool                `json:"shuffle_state"`
	ProgressMS   *int64              `json:"progress_ms"`
	Item         *playbackItemObject `json:"item"`
	Context      *contextObject      `json:"context"`
}

func (p *playbackObject) model() *models.CurrentPlayback {
	if p == nil {
		return nil
	}
	playback := &models.CurrentPlayback{
		Device:       p.Device.model(),
		IsPlaying:    p.IsPlaying,
		RepeatState:  models.RepeatState(p.RepeatState),
		ShuffleState: p.ShuffleState,
		Item:         p.Item.model(),
	}
	if p.ProgressMS != nil {
		playback.Progress = time.Duration(*p.ProgressMS) * time.Millisecond
	}
	if p.Context != nil {
		playback.Context = &models.PlaybackContextRef{
			Kind: models.Kind(p.Context.Type),
			URI:  models.URI(p.Context.URI),
		}
	}
	return playback
}

type queueObject struct {
	CurrentlyPlaying *playbackItemObject  `json:"currently_playing"`
	Queue            []playbackItemObject `json:"queue"`
}

func (q queueObject) model() *models.Queue {
	queue := &models.Queue{CurrentlyPlaying: q.CurrentlyPlaying.model()}
	for i := range q.Queue {
		if item := q.Queue[i].model(); item != nil {
			queue.Items = append(queue.Items, *item)
		}
	}
	return queue
}

func parseAddedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
