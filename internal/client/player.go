package client

import (
	"context"
	"fmt"
	"time"

	"spotd/internal/api"
	"spotd/internal/cache"
	"spotd/internal/models"
	"spotd/internal/shared"
	"spotd/internal/state"
)

const (
	connectDeviceAttempts = 10
	connectDeviceDelay    = time.Second
	playbackRefreshCount  = 5
)

// HandlePlayerRequest applies a player request's state machine against the
// facade, shadow-updating the buffered playback so the UI reacts before the
// authoritative state is re-fetched.
//
// TransferPlayback is handled out-of-band of the other requests because it
// does not require a pre-existing active playback.
func (c *Client) HandlePlayerRequest(ctx context.Context, req PlayerRequest) error {
	if transfer, ok := req.(TransferPlayback); ok {
		if err := c.api.TransferPlayback(ctx, transfer.DeviceID, transfer.ForcePlay); err != nil {
			return err
		}
		c.logger.Info("transferred the playback", "device_id", transfer.DeviceID)
		return nil
	}

	playback := c.state.BufferedPlayback()
	if playback == nil {
		return fmt.Errorf("failed to handle the player request: %w", shared.ErrNoActivePlayback)
	}
	deviceID := playback.DeviceID

	switch r := req.(type) {
	case NextTrack:
		return c.api.NextTrack(ctx, deviceID)
	case PreviousTrack:
		return c.api.PreviousTrack(ctx, deviceID)
	case Resume:
		if err := c.api.ResumePlayback(ctx, deviceID); err != nil {
			return err
		}
		playback.IsPlaying = true
	case Pause:
		if err := c.api.PausePlayback(ctx, deviceID); err != nil {
			return err
		}
		playback.IsPlaying = false
	case ResumePause:
		if playback.IsPlaying {
			if err := c.api.PausePlayback(ctx, deviceID); err != nil {
				return err
			}
		} else {
			if err := c.api.ResumePlayback(ctx, deviceID); err != nil {
				return err
			}
		}
		playback.IsPlaying = !playback.IsPlaying
	case SeekTrack:
		return c.api.SeekTrack(ctx, r.Position, deviceID)
	case Repeat:
		next := playback.RepeatState.Next()
		if err := c.api.Repeat(ctx, next, deviceID); err != nil {
			return err
		}
		playback.RepeatState = next
		playback.FakeTrackRepeat = c.state.Configs.App.EnableFakeTrackRepeat && next == models.RepeatTrack
	case Shuffle:
		if err := c.api.Shuffle(ctx, !playback.ShuffleState, deviceID); err != nil {
			return err
		}
		playback.ShuffleState = !playback.ShuffleState
	case Volume:
		if err := c.api.Volume(ctx, r.Percent, deviceID); err != nil {
			return err
		}
		playback.Volume = r.Percent
		playback.MuteState = nil
	case ToggleMute:
		if playback.MuteState == nil {
			if err := c.api.Volume(ctx, 0, deviceID); err != nil {
				return err
			}
			level := playback.Volume
			playback.MuteState = &level
			playback.Volume = 0
		} else {
			level := *playback.MuteState
			if err := c.api.Volume(ctx, level, deviceID); err != nil {
				return err
			}
			playback.Volume = level
			playback.MuteState = nil
		}
	case StartPlayback:
		if err := c.startPlayback(ctx, r.Playback, deviceID); err != nil {
			return err
		}
		// the integrated client doesn't honour the initial shuffle state when
		// starting a new playback, re-apply it manually
		if err := c.api.Shuffle(ctx, playback.ShuffleState, deviceID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown player request %T", shared.ErrInvalidRequest, req)
	}

	c.state.WritePlayer(func(p *state.PlayerState) {
		p.BufferedPlayback = playback
	})
	return nil
}

func (c *Client) startPlayback(ctx context.Context, playback models.Playback, deviceID string) error {
	if playback.Context != nil {
		return c.api.StartContext(ctx, playback.Context, deviceID, playback.Offset)
	}
	return c.api.StartURIs(ctx, playback.URIs, deviceID, playback.Offset)
}

// UpdatePlayback schedules a shadow-refresh cycle: several current-playback
// fetches spaced by the configured delay, reconciling the buffered state with
// the server-authoritative one.
//
// More than one request is needed because the server may take a while to
// reflect the change just made.
func (c *Client) UpdatePlayback(ctx context.Context) {
	delay := time.Duration(c.state.Configs.App.PlaybackUpdateDelayMs) * time.Millisecond
	go func() {
		for range playbackRefreshCount {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			if err := c.UpdateCurrentPlaybackState(ctx); err != nil {
				c.logger.Error("failed to update the playback state", "error", err)
			}
		}
	}()
}

// ConnectDevice connects the playback to a device. With an empty id an
// available device is discovered, preferring the configured default. Device
// registration with the server may lag, so the transfer is retried with
// back-off.
func (c *Client) ConnectDevice(ctx context.Context, id string) {
	for range connectDeviceAttempts {
		select {
		case <-ctx.Done():
			return
		case <-time.After(connectDeviceDelay):
		}

		target := id
		if target == "" {
			found, err := c.FindAvailableDevice(ctx)
			if err != nil {
				c.logger.Error("failed to find an available device", "error", err)
				continue
			}
			if found == "" {
				c.logger.Info("no device found")
				continue
			}
			target = found
		}

		c.logger.Info("trying to connect to device", "device_id", target)
		if err := c.api.TransferPlayback(ctx, target, false); err != nil {
			c.logger.Warn("connection failed", "device_id", target, "error", err)
			continue
		}

		c.logger.Info("connection succeeded", "device_id", target)
		// upon a new connection, reset the buffered playback
		c.state.WritePlayer(func(p *state.PlayerState) {
			p.BufferedPlayback = nil
		})
		c.UpdatePlayback(ctx)
		return
	}
}

// FindAvailableDevice returns the id of a usable device, or "" when none
// exists. The integrated streaming device is appended to the discovered list
// because it may not be registered with the server yet.
func (c *Client) FindAvailableDevice(ctx context.Context) (string, error) {
	devices, err := c.api.Devices(ctx)
	if err != nil {
		return "", err
	}

	if session := c.api.Session(); session != nil && session.DeviceID() != "" {
		devices = append(devices, models.Device{
			ID:   session.DeviceID(),
			Name: c.state.Configs.App.DeviceName,
		})
	}

	if len(devices) == 0 {
		return "", nil
	}

	for _, d := range devices {
		if d.Name == c.state.Configs.App.DefaultDevice {
			return d.ID, nil
		}
	}
	return devices[0].ID, nil
}

// UpdateCurrentPlaybackState fetches the playback snapshot, re-derives the
// buffered playback when the device or track changed, and performs the
// new-track side effects (cover image fetch, image cache fill, notification).
func (c *Client) UpdateCurrentPlaybackState(ctx context.Context) error {
	playback, err := c.api.CurrentPlayback(ctx)
	if err != nil {
		return err
	}

	newTrack := false
	c.state.WritePlayer(func(p *state.PlayerState) {
		prevName := ""
		if t := p.CurrentPlayingTrack(); t != nil {
			prevName = t.Name
		}

		p.Playback = playback
		p.PlaybackLastUpdated = time.Now()

		currName := ""
		if t := p.CurrentPlayingTrack(); t != nil {
			currName = t.Name
		}

		newTrack = prevName != currName && currName != ""

		needsUpdate := false
		switch {
		case p.BufferedPlayback != nil && playback != nil:
			needsUpdate = p.BufferedPlayback.DeviceID != playback.Device.ID || newTrack
		case p.BufferedPlayback == nil && playback == nil:
			needsUpdate = false
		default:
			needsUpdate = true
		}

		if needsUpdate {
			buffered := models.PlaybackMetadataFrom(playback)
			if buffered != nil {
				buffered.FakeTrackRepeat = c.state.Configs.App.EnableFakeTrackRepeat && buffered.RepeatState == models.RepeatTrack
			}
			p.BufferedPlayback = buffered
		}
	})

	if !newTrack {
		return nil
	}

	track := c.state.CurrentPlayingTrack()
	if track == nil || track.Album == nil {
		return nil
	}

	return c.handleNewTrack(ctx, track)
}

func (c *Client) handleNewTrack(ctx context.Context, track *models.Track) error {
	url := track.Album.ImageURL
	if url == "" {
		return nil
	}

	path := cache.CoverImagePath(c.state.Configs.ImageCacheDir(), track.Album.Name, track.ArtistNames())

	// the notification hook renders the cover from the on-disk cache, so the
	// image is written through whenever either feature is on
	cfg := c.state.Configs.App
	if cfg.EnableCoverImageCache || cfg.EnableNotify {
		if _, err := c.api.RetrieveImage(ctx, url, path, true); err != nil {
			return err
		}
	}

	cached := false
	c.state.ReadData(func(d *state.AppData) {
		cached = d.Caches.Images.Contains(url)
	})
	if !cached {
		data, err := c.api.RetrieveImage(ctx, url, path, false)
		if err != nil {
			return err
		}
		img, err := api.DecodeImage(data)
		if err != nil {
			return err
		}
		c.state.WriteData(func(d *state.AppData) {
			d.Caches.Images.Add(url, img)
		})
	}

	if cfg.EnableNotify && c.notifier != nil {
		// the notification subsystem never fails the caller
		if err := c.notifier.NotifyNewTrack(track, path, cfg.Notify.Summary, cfg.Notify.Body); err != nil {
			c.logger.Warn("failed to send a desktop notification", "error", err)
		}
	}

	return nil
}
