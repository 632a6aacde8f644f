package client

import (
	"context"
	"time"

	"spotd/internal/models"
	"spotd/internal/state"
)

const watchTick = 200 * time.Millisecond

// StartPlayerEventWatchers runs the periodic watchers that detect track end,
// context change and lyric-page change, feeding synthetic requests back into
// the scheduler. It blocks until ctx is cancelled.
func (c *Client) StartPlayerEventWatchers(ctx context.Context) {
	// A positive refresh interval starts a sibling ticker that polls the
	// playback at its own cadence.
	if ms := c.state.Configs.App.PlaybackRefreshDurationMs; ms > 0 {
		go func() {
			interval := time.Duration(ms) * time.Millisecond
			for {
				c.Send(GetCurrentPlayback{})
				select {
				case <-ctx.Done():
					return
				case <-time.After(interval):
				}
			}
		}()
	}

	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.watchTrackEnd()
			c.watchContextPage()
			c.watchLyricsPage()
		}
	}
}

// watchTrackEnd refreshes the playback when the playing track has run past
// its duration. With fake track repeat active, the track is instead seeked
// back to the beginning locally.
func (c *Client) watchTrackEnd() {
	var (
		progress   time.Duration
		duration   time.Duration
		isPlaying  bool
		hasTrack   bool
		fakeRepeat bool
	)
	c.state.ReadPlayer(func(p *state.PlayerState) {
		if t := p.CurrentPlayingTrack(); t != nil {
			hasTrack = true
			duration = t.Duration
		}
		progress, _ = p.PlaybackProgress()
		if p.Playback != nil {
			isPlaying = p.Playback.IsPlaying
		}
		if p.BufferedPlayback != nil {
			fakeRepeat = p.BufferedPlayback.FakeTrackRepeat
		}
	})

	if !hasTrack || !isPlaying || progress < duration {
		return
	}

	if fakeRepeat {
		c.SendPlayer(SeekTrack{Position: 0})
		return
	}
	c.Send(GetCurrentPlayback{})
}

// watchContextPage keeps the context page's id in sync with the expected
// context, resetting the page's window state and requesting missing data.
func (c *Client) watchContextPage() {
	var playing models.ContextID
	c.state.ReadPlayer(func(p *state.PlayerState) {
		playing = p.PlayingContextID()
	})

	var request models.ContextID
	c.state.UI(func(ui *state.UIState) {
		if ui.Page != state.PageContext {
			return
		}
		expected := ui.Context.ExpectedID(playing)
		if contextIDsEqual(ui.Context.ID, expected) {
			return
		}

		c.logger.Info("current context id is different from the expected id, updating the context page",
			"current", contextIDString(ui.Context.ID), "expected", contextIDString(expected))

		ui.Context.ID = expected
		ui.Context.Window = state.WindowState{}

		if expected != nil {
			request = expected
		}
	})

	if request == nil {
		return
	}

	cached := false
	c.state.ReadData(func(d *state.AppData) {
		cached = d.Caches.Context.Contains(string(request.URI()))
	})
	if !cached {
		c.Send(GetContext{ID: request})
	}
}

// watchLyricsPage re-targets the lyrics page when the playing track changes.
func (c *Client) watchLyricsPage() {
	track := c.state.CurrentPlayingTrack()
	if track == nil {
		return
	}

	fetch := false
	c.state.UI(func(ui *state.UIState) {
		if ui.Page != state.PageLyrics || ui.Lyrics.Track == track.Name {
			return
		}
		ui.Lyrics.Track = track.Name
		ui.Lyrics.Artists = track.ArtistNames()
		fetch = true
	})

	if fetch {
		c.Send(GetLyrics{TrackID: track.ID})
	}
}

func contextIDsEqual(a, b models.ContextID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.URI() == b.URI()
}

func contextIDString(id models.ContextID) string {
	if id == nil {
		return "<none>"
	}
	return string(id.URI())
}
