package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"spotd/internal/api"
	"spotd/internal/auth"
	"spotd/internal/client"
	"spotd/internal/config"
	"spotd/internal/models"
	"spotd/internal/shared"
	"spotd/internal/state"
	"spotd/internal/tasks"
	sptest "spotd/internal/testing"
)

func newTestServer(t *testing.T) (*Server, *sptest.RouteTripper, *client.Client) {
	t.Helper()

	rt := sptest.NewRouteTripper()
	cfg := &config.Config{App: config.AppConfig{
		PlaybackUpdateDelayMs: 1,
		CacheDurationSecs:     60,
	}}

	apiClient := api.New(
		auth.NewManager(sptest.StaticIssuer{}, "client-id", ""),
		&sptest.FakeSession{},
		&http.Client{Transport: rt},
		shared.NewLogger(io.Discard),
	)
	c := client.New(apiClient, state.New(cfg), nil, shared.NewLogger(io.Discard))
	engine := tasks.NewImportEngine(apiClient, t.TempDir(), shared.NewLogger(io.Discard))

	server, err := NewServer(c, engine, 0, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go server.Serve(ctx)

	return server, rt, c
}

func call(t *testing.T, server *Server, request Request) *Response {
	t.Helper()
	cl, err := Dial(server.Port())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer cl.Close()

	response, err := cl.Call(request, 5*time.Second)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	return response
}

func seedBuffered(c *client.Client, p models.PlaybackMetadata) {
	c.State().WritePlayer(func(ps *state.PlayerState) {
		cp := p
		ps.BufferedPlayback = &cp
	})
}

func TestServer_GetKeyDevices(t *testing.T) {
	server, rt, _ := newTestServer(t)
	rt.Handle(http.MethodGet, "/v1/me/player/devices", `{"devices":[{"id":"dev-1","name":"Desk"}]}`)

	response := call(t, server, Request{Get: &GetRequest{Key: keyPtr(KeyDevices)}})
	if response.Err != nil {
		t.Fatalf("Err = %s", response.Err)
	}

	var devices []models.Device
	if err := json.Unmarshal(response.Ok, &devices); err != nil {
		t.Fatalf("Ok payload is not JSON: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != "dev-1" {
		t.Errorf("devices = %+v", devices)
	}
}

func TestServer_VolumeOffsetClamping(t *testing.T) {
	// Given buffered volume 95, "volume +10 --offset" must call volume(100).
	server, rt, c := newTestServer(t)
	seedBuffered(c, models.PlaybackMetadata{DeviceID: "dev-1", Volume: 95})

	response := call(t, server, Request{Playback: &Command{
		Volume: &VolumeCommand{Percent: 10, IsOffset: true},
	}})
	if response.Err != nil {
		t.Fatalf("Err = %s", response.Err)
	}

	calls := rt.Recorded(http.MethodPut, "/v1/me/player/volume")
	if len(calls) != 1 {
		t.Fatalf("volume calls = %d, want 1", len(calls))
	}
	if calls[0].Query != "volume_percent=100&device_id=dev-1" {
		t.Errorf("volume query = %q, want volume_percent=100", calls[0].Query)
	}
}

func TestServer_VolumeOffsetClampsToZero(t *testing.T) {
	server, rt, c := newTestServer(t)
	seedBuffered(c, models.PlaybackMetadata{DeviceID: "dev-1", Volume: 5})

	response := call(t, server, Request{Playback: &Command{
		Volume: &VolumeCommand{Percent: -30, IsOffset: true},
	}})
	if response.Err != nil {
		t.Fatalf("Err = %s", response.Err)
	}

	calls := rt.Recorded(http.MethodPut, "/v1/me/player/volume")
	if len(calls) != 1 || calls[0].Query != "volume_percent=0&device_id=dev-1" {
		t.Errorf("volume calls = %+v, want clamp to 0", calls)
	}
}

func TestServer_SeekOffset(t *testing.T) {
	// Given progress 30s, "seek +15000" must call seek_track(45000).
	server, rt, c := newTestServer(t)
	seedBuffered(c, models.PlaybackMetadata{DeviceID: "dev-1"})
	c.State().WritePlayer(func(ps *state.PlayerState) {
		ps.Playback = &models.CurrentPlayback{
			Device:   models.Device{ID: "dev-1"},
			Progress: 30 * time.Second,
			// paused, so progress does not advance with wall time
			IsPlaying: false,
		}
		ps.PlaybackLastUpdated = time.Now()
	})

	offset := int64(15000)
	response := call(t, server, Request{Playback: &Command{SeekOffsetMS: &offset}})
	if response.Err != nil {
		t.Fatalf("Err = %s", response.Err)
	}

	calls := rt.Recorded(http.MethodPut, "/v1/me/player/seek")
	if len(calls) != 1 {
		t.Fatalf("seek calls = %d, want 1", len(calls))
	}
	if calls[0].Query != "position_ms=45000&device_id=dev-1" {
		t.Errorf("seek query = %q, want position_ms=45000", calls[0].Query)
	}
}

func TestServer_NameLookupMiss(t *testing.T) {
	server, rt, _ := newTestServer(t)
	rt.Handle(http.MethodGet, "/v1/search", `{"playlists":{"items":[]}}`)

	response := call(t, server, Request{Get: &GetRequest{Context: &ContextRequest{
		Type:     ContextPlaylist,
		IDOrName: IDOrName{Name: "does-not-exist"},
	}}})

	if response.Err == nil {
		t.Fatal("expected an Err response")
	}
	want := "Cannot find playlist with name='does-not-exist'"
	if got := string(response.Err); got != want {
		t.Errorf("Err = %q, want %q", got, want)
	}
}

func TestServer_PlaybackWithoutActivePlayback(t *testing.T) {
	server, _, _ := newTestServer(t)

	response := call(t, server, Request{Playback: &Command{PlayPause: true}})
	if response.Err == nil {
		t.Fatal("expected an Err response without an active playback")
	}
}

func TestServer_ConnectByName(t *testing.T) {
	server, rt, _ := newTestServer(t)
	rt.Handle(http.MethodGet, "/v1/me/player/devices", `{"devices":[{"id":"dev-9","name":"Desk"}]}`)

	response := call(t, server, Request{Connect: &IDOrName{Name: "Desk"}})
	if response.Err != nil {
		t.Fatalf("Err = %s", response.Err)
	}

	transfers := rt.Recorded(http.MethodPut, "/v1/me/player")
	if len(transfers) != 1 || !strings.Contains(transfers[0].Body, "dev-9") {
		t.Errorf("transfer calls = %+v", transfers)
	}
}

func TestServer_ResponseFraming(t *testing.T) {
	// A response bigger than one datagram arrives as ceil(N/4096) non-empty
	// datagrams followed by a zero-length terminator; concatenating them
	// reproduces the byte stream exactly.
	server, rt, _ := newTestServer(t)

	name := strings.Repeat("x", 3000)
	var items []string
	for i := 0; i < 5; i++ {
		items = append(items, fmt.Sprintf(`{"id":"pl%d","name":"%s","owner":{"id":"u1","display_name":"User"}}`, i, name))
	}
	rt.Handle(http.MethodGet, "/v1/me/playlists", `{"items":[`+strings.Join(items, ",")+`]}`)

	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: server.Port()})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	request, _ := json.Marshal(Request{Get: &GetRequest{Key: keyPtr(KeyUserPlaylists)}})
	if _, err := conn.Write(request); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var payload []byte
	datagrams := 0
	buf := make([]byte, MaxChunkSize*2)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("read error after %d datagrams: %v", datagrams, err)
		}
		if n == 0 {
			break
		}
		if n > MaxChunkSize {
			t.Fatalf("datagram of %d bytes exceeds the %d chunk size", n, MaxChunkSize)
		}
		datagrams++
		payload = append(payload, buf[:n]...)
	}

	if want := (len(payload) + MaxChunkSize - 1) / MaxChunkSize; datagrams != want {
		t.Errorf("received %d datagrams for %d bytes, want %d", datagrams, len(payload), want)
	}
	if len(payload) <= MaxChunkSize {
		t.Fatalf("response of %d bytes does not exercise chunking", len(payload))
	}

	var response Response
	if err := json.Unmarshal(payload, &response); err != nil {
		t.Fatalf("reassembled payload is not valid JSON: %v", err)
	}
	var playlists []models.Playlist
	if err := json.Unmarshal(response.Ok, &playlists); err != nil {
		t.Fatalf("Ok payload broken: %v", err)
	}
	if len(playlists) != 5 {
		t.Errorf("playlists = %d, want 5", len(playlists))
	}
}

func keyPtr(k Key) *Key { return &k }
