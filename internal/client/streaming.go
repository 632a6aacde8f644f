package client

import (
	"context"
	"sync"
)

// StreamingSlot guards the integrated player connection handle. Replacing a
// connection first shuts the previous one down by closing its broadcast
// channel, on which the connection's tasks select to tear themselves down.
type StreamingSlot struct {
	mu       sync.Mutex
	shutdown chan struct{}
	deviceID string
}

// Replace tears down the previous connection and installs a new shutdown
// channel for the given device id. It returns the new channel.
func (s *StreamingSlot) Replace(deviceID string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown != nil {
		close(s.shutdown)
	}
	s.shutdown = make(chan struct{})
	s.deviceID = deviceID
	return s.shutdown
}

// DeviceID returns the currently registered integrated device id.
func (s *StreamingSlot) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

// handleNewStreamingConnection restarts the integrated playback device: the
// previous connection receives a shutdown broadcast, a new connection is
// registered under the session's device id, and the daemon connects to it.
func (c *Client) handleNewStreamingConnection(ctx context.Context) {
	session := c.api.Session()
	if session == nil || session.DeviceID() == "" {
		c.logger.Warn("cannot create a streaming connection: no integrated device available")
		return
	}

	deviceID := session.DeviceID()
	c.streaming.Replace(deviceID)
	c.logger.Info("created a new streaming connection", "device_id", deviceID)

	// upon creating a new streaming connection, connect to it
	c.Send(ConnectDevice{ID: deviceID})
}
