package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"spotd/internal/auth"
	"spotd/internal/models"
	"spotd/internal/shared"
)

type staticIssuer struct{}

func (staticIssuer) IssueToken(ctx context.Context, clientID string, scopes []string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "test-token", Expiry: time.Now().Add(time.Hour)}, nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New(auth.NewManager(staticIssuer{}, "client-id", ""), nil, nil, shared.NewLogger(io.Discard))
	c.baseURL = server.URL
	return c, server
}

func TestClient_AuthorizationHeader(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"id":"u1","display_name":"User"}`)
	}))

	if _, err := c.CurrentUser(context.Background()); err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
}

func TestClient_RateLimitRetry(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id":"u1","display_name":"User"}`)
	}))

	user, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser() after 429 error = %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user id = %q", user.ID)
	}
	if calls != 2 {
		t.Errorf("request count = %d, want 2 (one retry)", calls)
	}
}

func TestClient_PaginationCompleteness(t *testing.T) {
	// Three pages of saved tracks; the collected list must equal their
	// concatenation in order with no duplicate across boundaries.
	var server *httptest.Server
	mux := http.NewServeMux()
	pageFor := func(w http.ResponseWriter, from, to int, hasNext bool) {
		items := make([]map[string]any, 0, to-from)
		for i := from; i < to; i++ {
			items = append(items, map[string]any{
				"added_at": "2024-01-02T03:04:05Z",
				"track": map[string]any{
					"id":          fmt.Sprintf("t%02d", i),
					"name":        fmt.Sprintf("Track %02d", i),
					"duration_ms": 1000,
				},
			})
		}
		page := map[string]any{"items": items}
		if hasNext {
			page["next"] = server.URL + fmt.Sprintf("/page/%d", to)
		}
		json.NewEncoder(w).Encode(page)
	}
	mux.HandleFunc("/me/tracks", func(w http.ResponseWriter, r *http.Request) { pageFor(w, 0, 50, true) })
	mux.HandleFunc("/page/50", func(w http.ResponseWriter, r *http.Request) { pageFor(w, 50, 100, true) })
	mux.HandleFunc("/page/100", func(w http.ResponseWriter, r *http.Request) { pageFor(w, 100, 120, false) })

	c, s := newTestClient(t, mux)
	server = s

	tracks, err := c.SavedTracks(context.Background())
	if err != nil {
		t.Fatalf("SavedTracks() error = %v", err)
	}
	if len(tracks) != 120 {
		t.Fatalf("collected %d tracks, want 120", len(tracks))
	}
	seen := make(map[models.TrackID]bool)
	for i, track := range tracks {
		if want := models.TrackID(fmt.Sprintf("t%02d", i)); track.ID != want {
			t.Fatalf("track %d = %s, want %s (order broken)", i, track.ID, want)
		}
		if seen[track.ID] {
			t.Fatalf("duplicate track %s across page boundaries", track.ID)
		}
		seen[track.ID] = true
	}
}

func TestClient_ChunkingBound(t *testing.T) {
	var batchSizes []int
	mux := http.NewServeMux()
	mux.HandleFunc("/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs   []string         `json:"uris"`
			Tracks []map[string]any `json:"tracks"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if r.Method == http.MethodPost {
			batchSizes = append(batchSizes, len(body.URIs))
		} else {
			batchSizes = append(batchSizes, len(body.Tracks))
		}
		fmt.Fprint(w, `{"snapshot_id":"snap"}`)
	})

	c, _ := newTestClient(t, mux)

	ids := make([]models.PlayableID, 250)
	for i := range ids {
		ids[i] = models.TrackID(fmt.Sprintf("t%03d", i))
	}

	if err := c.AddItemsToPlaylist(context.Background(), "pl1", ids); err != nil {
		t.Fatalf("AddItemsToPlaylist() error = %v", err)
	}
	if err := c.RemoveAllOccurrences(context.Background(), "pl1", ids); err != nil {
		t.Fatalf("RemoveAllOccurrences() error = %v", err)
	}

	total := 0
	for _, n := range batchSizes {
		if n > batchLimit {
			t.Errorf("batch of %d ids exceeds the %d limit", n, batchLimit)
		}
		total += n
	}
	if total != 500 {
		t.Errorf("submitted %d ids in total, want 500", total)
	}
}

func TestClient_PlaylistContextDropsUnplayable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/playlists/pl1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": "pl1", "name": "Mix", "snapshot_id": "snap-1",
			"owner": {"id": "u1", "display_name": "User"},
			"tracks": {"items": [
				{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "t1", "name": "One", "duration_ms": 1000}},
				{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "t2", "name": "Two", "duration_ms": 1000, "is_playable": false}},
				{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "", "name": "Local", "duration_ms": 1000}},
				{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "t3", "name": "Three", "duration_ms": 1000, "is_playable": true}}
			]}
		}`)
	})

	c, _ := newTestClient(t, mux)

	pctx, err := c.PlaylistContext(context.Background(), "pl1")
	if err != nil {
		t.Fatalf("PlaylistContext() error = %v", err)
	}
	if len(pctx.Tracks) != 2 {
		t.Fatalf("kept %d tracks, want 2 (unplayable dropped at ingestion)", len(pctx.Tracks))
	}
	if pctx.Tracks[0].ID != "t1" || pctx.Tracks[1].ID != "t3" {
		t.Errorf("kept tracks %v", []models.TrackID{pctx.Tracks[0].ID, pctx.Tracks[1].ID})
	}
	if got := string(pctx.Playlist.ID.URI()); got != "spotify:playlist:pl1" {
		t.Errorf("cache key uri = %s", got)
	}
}

func TestClient_VolumeRange(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	if err := c.Volume(context.Background(), 101, ""); err == nil {
		t.Error("Volume(101) expected error")
	}
	if err := c.Volume(context.Background(), -1, ""); err == nil {
		t.Error("Volume(-1) expected error")
	}
}

func TestClient_StartContextRejectsTracksContext(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	err := c.StartContext(context.Background(), models.LikedTracksID, "", nil)
	if err == nil {
		t.Fatal("StartContext(tracks context) expected error")
	}
}
