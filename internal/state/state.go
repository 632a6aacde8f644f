package state

import (
	"sync"
	"time"

	"spotd/internal/clipboard"
	"spotd/internal/config"
	"spotd/internal/models"
)

// State is the process-wide state store shared by the scheduler, the playback
// controller, the watch loop, the IPC server and the UI collaborator.
//
// The player and data sections are guarded by reader-writer locks so readers
// never block other readers; the UI section uses a plain mutex. Writers hold
// their lock briefly and must not perform I/O while holding it.
type State struct {
	Configs *config.Config

	// Clipboard is the clipboard capability picked once at daemon boot and
	// consumed by the UI collaborator.
	Clipboard clipboard.Provider

	playerMu sync.RWMutex
	player   PlayerState

	uiMu sync.Mutex
	ui   UIState

	dataMu sync.RWMutex
	data   AppData
}

// New creates a state store for a fresh session.
func New(cfg *config.Config) *State {
	return &State{
		Configs: cfg,
		data: AppData{
			Browse: Browse{CategoryPlaylists: make(map[string][]models.Playlist)},
			Caches: NewCaches(cfg.CacheTTL()),
		},
	}
}

// ReadPlayer runs fn under the player read lock.
func (s *State) ReadPlayer(fn func(*PlayerState)) {
	s.playerMu.RLock()
	defer s.playerMu.RUnlock()
	fn(&s.player)
}

// WritePlayer runs fn under the player write lock.
func (s *State) WritePlayer(fn func(*PlayerState)) {
	s.playerMu.Lock()
	defer s.playerMu.Unlock()
	fn(&s.player)
}

// ReadData runs fn under the data read lock.
func (s *State) ReadData(fn func(*AppData)) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	fn(&s.data)
}

// WriteData runs fn under the data write lock.
func (s *State) WriteData(fn func(*AppData)) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	fn(&s.data)
}

// UI runs fn under the UI mutex.
func (s *State) UI(fn func(*UIState)) {
	s.uiMu.Lock()
	defer s.uiMu.Unlock()
	fn(&s.ui)
}

// BufferedPlayback returns a copy of the shadow playback, if any.
func (s *State) BufferedPlayback() *models.PlaybackMetadata {
	var p *models.PlaybackMetadata
	s.ReadPlayer(func(ps *PlayerState) {
		if ps.BufferedPlayback != nil {
			cp := *ps.BufferedPlayback
			p = &cp
		}
	})
	return p
}

// CurrentPlayingTrack returns a copy of the currently playing track, if any.
func (s *State) CurrentPlayingTrack() *models.Track {
	var t *models.Track
	s.ReadPlayer(func(ps *PlayerState) {
		if track := ps.CurrentPlayingTrack(); track != nil {
			cp := *track
			t = &cp
		}
	})
	return t
}

// PlaybackProgress returns the extrapolated playback progress.
func (s *State) PlaybackProgress() (time.Duration, bool) {
	var d time.Duration
	var ok bool
	s.ReadPlayer(func(ps *PlayerState) {
		d, ok = ps.PlaybackProgress()
	})
	return d, ok
}

// CurrentUser returns the current user, if known.
func (s *State) CurrentUser() *models.User {
	var u *models.User
	s.ReadData(func(d *AppData) {
		if d.UserData.User != nil {
			cp := *d.UserData.User
			u = &cp
		}
	})
	return u
}
