package api

import (
	"context"
	"encoding/json"
	"fmt"

	"spotd/internal/models"
	"spotd/internal/shared"
)

type radioStationResponse struct {
	Tracks []struct {
		OriginalGID string `json:"original_gid"`
	} `json:"tracks"`
}

// RadioTracks resolves the autoplay station of a seed URI over the session's
// Mercury channel and returns the station's tracks.
func (c *Client) RadioTracks(ctx context.Context, seedURI string) ([]models.Track, error) {
	resp, err := c.session.MercuryGet(ctx, fmt.Sprintf("hm://autoplay-enabled/query?uri=%s", seedURI))
	if err != nil {
		return nil, fmt.Errorf("failed to get autoplay URI: %w", err)
	}
	if resp.StatusCode != 200 || len(resp.Payload) == 0 {
		return nil, fmt.Errorf("%w: failed to get autoplay URI: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	autoplayURI := string(resp.Payload[0])

	resp, err = c.session.MercuryGet(ctx, fmt.Sprintf("hm://radio-apollo/v3/stations/%s", autoplayURI))
	if err != nil {
		return nil, fmt.Errorf("failed to get radio data of %s: %w", autoplayURI, err)
	}
	if resp.StatusCode != 200 || len(resp.Payload) == 0 {
		return nil, fmt.Errorf("%w: failed to get radio data of %s: status %d", shared.ErrAPIRequest, autoplayURI, resp.StatusCode)
	}

	var station radioStationResponse
	if err := json.Unmarshal(resp.Payload[0], &station); err != nil {
		return nil, fmt.Errorf("%w: failed to decode station data: %v", shared.ErrBadResponse, err)
	}

	ids := make([]models.TrackID, 0, len(station.Tracks))
	for _, t := range station.Tracks {
		if t.OriginalGID != "" {
			ids = append(ids, models.TrackID(t.OriginalGID))
		}
	}

	return c.Tracks(ctx, ids)
}
