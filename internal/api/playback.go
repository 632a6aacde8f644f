package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"spotd/internal/models"
	"spotd/internal/shared"
)

func deviceQuery(deviceID string) string {
	if deviceID == "" {
		return ""
	}
	return "?device_id=" + url.QueryEscape(deviceID)
}

// CurrentPlayback returns the current playback snapshot, or nil when nothing
// is playing anywhere.
func (c *Client) CurrentPlayback(ctx context.Context) (*models.CurrentPlayback, error) {
	var playback *playbackObject
	if err := c.get(ctx, c.endpoint("/me/player"), &playback); err != nil {
		return nil, err
	}
	return playback.model(), nil
}

// Devices lists the user's available playback devices.
func (c *Client) Devices(ctx context.Context) ([]models.Device, error) {
	var resp struct {
		Devices []deviceObject `json:"devices"`
	}
	if err := c.get(ctx, c.endpoint("/me/player/devices"), &resp); err != nil {
		return nil, err
	}
	devices := make([]models.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		if d.ID != nil {
			devices = append(devices, d.model())
		}
	}
	return devices, nil
}

// UserQueue returns the user's playback queue.
func (c *Client) UserQueue(ctx context.Context) (*models.Queue, error) {
	var resp queueObject
	if err := c.get(ctx, c.endpoint("/me/player/queue"), &resp); err != nil {
		return nil, err
	}
	return resp.model(), nil
}

// NextTrack skips to the next track.
func (c *Client) NextTrack(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPost, c.endpoint("/me/player/next"+deviceQuery(deviceID)), nil, nil)
}

// PreviousTrack skips to the previous track.
func (c *Client) PreviousTrack(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPost, c.endpoint("/me/player/previous"+deviceQuery(deviceID)), nil, nil)
}

// PausePlayback pauses the playback.
func (c *Client) PausePlayback(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPut, c.endpoint("/me/player/pause"+deviceQuery(deviceID)), nil, nil)
}

// ResumePlayback resumes the paused playback.
func (c *Client) ResumePlayback(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPut, c.endpoint("/me/player/play"+deviceQuery(deviceID)), nil, nil)
}

// SeekTrack seeks the playing track to position.
func (c *Client) SeekTrack(ctx context.Context, position time.Duration, deviceID string) error {
	u := fmt.Sprintf("%s/me/player/seek?position_ms=%d", c.baseURL, position.Milliseconds())
	if deviceID != "" {
		u += "&device_id=" + url.QueryEscape(deviceID)
	}
	return c.do(ctx, http.MethodPut, u, nil, nil)
}

// Volume sets the device volume percentage.
func (c *Client) Volume(ctx context.Context, percent int, deviceID string) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume percent %d out of range", shared.ErrInvalidArgument, percent)
	}
	u := fmt.Sprintf("%s/me/player/volume?volume_percent=%d", c.baseURL, percent)
	if deviceID != "" {
		u += "&device_id=" + url.QueryEscape(deviceID)
	}
	return c.do(ctx, http.MethodPut, u, nil, nil)
}

// Repeat sets the repeat mode.
func (c *Client) Repeat(ctx context.Context, mode models.RepeatState, deviceID string) error {
	u := fmt.Sprintf("%s/me/player/repeat?state=%s", c.baseURL, mode)
	if deviceID != "" {
		u += "&device_id=" + url.QueryEscape(deviceID)
	}
	return c.do(ctx, http.MethodPut, u, nil, nil)
}

// Shuffle sets the shuffle state.
func (c *Client) Shuffle(ctx context.Context, on bool, deviceID string) error {
	u := fmt.Sprintf("%s/me/player/shuffle?state=%t", c.baseURL, on)
	if deviceID != "" {
		u += "&device_id=" + url.QueryEscape(deviceID)
	}
	return c.do(ctx, http.MethodPut, u, nil, nil)
}

// TransferPlayback transfers the playback to another device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, forcePlay bool) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       forcePlay,
	}
	return c.do(ctx, http.MethodPut, c.endpoint("/me/player"), body, nil)
}

// AddToQueue appends a playable item to the user's queue.
func (c *Client) AddToQueue(ctx context.Context, id models.PlayableID) error {
	u := fmt.Sprintf("%s/me/player/queue?uri=%s", c.baseURL, url.QueryEscape(string(id.URI())))
	return c.do(ctx, http.MethodPost, u, nil, nil)
}

func offsetBody(offset *models.Offset) map[string]any {
	if offset == nil {
		return nil
	}
	if offset.URI != "" {
		return map[string]any{"uri": string(offset.URI)}
	}
	return map[string]any{"position": offset.Position}
}

// StartContext starts a context playback. Synthetic track-list contexts
// cannot be started remotely and fail fast.
func (c *Client) StartContext(ctx context.Context, id models.ContextID, deviceID string, offset *models.Offset) error {
	if _, ok := id.(models.TracksID); ok {
		return fmt.Errorf("%w: cannot start playback of a synthetic tracks context", shared.ErrInvalidRequest)
	}

	body := map[string]any{"context_uri": string(id.URI())}
	if o := offsetBody(offset); o != nil {
		body["offset"] = o
	}
	return c.do(ctx, http.MethodPut, c.endpoint("/me/player/play"+deviceQuery(deviceID)), body, nil)
}

// StartURIs starts playback of an explicit list of playable items.
func (c *Client) StartURIs(ctx context.Context, ids []models.PlayableID, deviceID string, offset *models.Offset) error {
	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = string(id.URI())
	}
	body := map[string]any{"uris": uris}
	if o := offsetBody(offset); o != nil {
		body["offset"] = o
	}
	return c.do(ctx, http.MethodPut, c.endpoint("/me/player/play"+deviceQuery(deviceID)), body, nil)
}
