package state

import (
	"time"

	"spotd/internal/models"
)

// PlayerState holds the playback side of the store.
type PlayerState struct {
	Devices []models.Device

	// ContextID is the id of the context the player believes it is in.
	ContextID models.ContextID

	// Playback is the last server-authoritative snapshot, stamped with the
	// local time it was received.
	Playback            *models.CurrentPlayback
	PlaybackLastUpdated time.Time

	// BufferedPlayback is the shadow projection consumed by the UI. It is
	// mutated synchronously by the playback controller and re-derived from
	// Playback when the device or track changes.
	BufferedPlayback *models.PlaybackMetadata

	Queue *models.Queue
}

// CurrentPlayingTrack returns the playing track when the playback item is a
// track.
func (s *PlayerState) CurrentPlayingTrack() *models.Track {
	if s.Playback == nil || s.Playback.Item == nil {
		return nil
	}
	return s.Playback.Item.Track
}

// PlaybackProgress extrapolates the playback progress from the last snapshot.
// Progress advances with wall time while the playback is playing.
func (s *PlayerState) PlaybackProgress() (time.Duration, bool) {
	if s.Playback == nil {
		return 0, false
	}
	progress := s.Playback.Progress
	if s.Playback.IsPlaying {
		progress += time.Since(s.PlaybackLastUpdated)
	}
	return progress, true
}

// PlayingContextID derives the typed context id from the playback snapshot.
func (s *PlayerState) PlayingContextID() models.ContextID {
	if s.Playback == nil || s.Playback.Context == nil {
		return nil
	}
	id, err := models.ContextIDFromURI(s.Playback.Context.URI)
	if err != nil {
		return nil
	}
	return id
}
