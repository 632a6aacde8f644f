package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spotd/internal/models"
	"spotd/internal/shared"
)

type mockService struct {
	playlists map[models.PlaylistID]*models.Context
	follows   map[models.PlaylistID]bool

	addCalls    [][]models.PlayableID
	removeCalls [][]models.PlayableID
	created     []models.Playlist
}

func (m *mockService) PlaylistContext(ctx context.Context, id models.PlaylistID) (*models.Context, error) {
	if fetched, ok := m.playlists[id]; ok {
		return fetched, nil
	}
	return nil, fmt.Errorf("playlist not found")
}

func (m *mockService) CreatePlaylist(ctx context.Context, user models.UserID, name string, public, collab bool, desc string) (*models.Playlist, error) {
	playlist := models.Playlist{
		ID:            models.PlaylistID(fmt.Sprintf("created-%d", len(m.created))),
		Name:          name,
		Public:        public,
		Collaborative: collab,
		Desc:          desc,
		Owner:         models.PlaylistOwner{ID: user},
	}
	m.created = append(m.created, playlist)
	m.playlists[playlist.ID] = &models.Context{
		Kind:     models.KindPlaylist,
		Playlist: &playlist,
	}
	return &playlist, nil
}

func (m *mockService) AddItemsToPlaylist(ctx context.Context, playlist models.PlaylistID, ids []models.PlayableID) error {
	m.addCalls = append(m.addCalls, ids)
	fetched := m.playlists[playlist]
	for _, id := range ids {
		fetched.Tracks = append(fetched.Tracks, models.Track{ID: models.TrackID(id.String()), Name: "Track " + id.String()})
	}
	return nil
}

func (m *mockService) RemoveAllOccurrences(ctx context.Context, playlist models.PlaylistID, ids []models.PlayableID) error {
	m.removeCalls = append(m.removeCalls, ids)
	removed := make(map[models.TrackID]bool)
	for _, id := range ids {
		removed[models.TrackID(id.String())] = true
	}
	fetched := m.playlists[playlist]
	kept := fetched.Tracks[:0]
	for _, t := range fetched.Tracks {
		if !removed[t.ID] {
			kept = append(kept, t)
		}
	}
	fetched.Tracks = kept
	return nil
}

func (m *mockService) CheckFollowPlaylist(ctx context.Context, playlist models.PlaylistID, users []models.UserID) ([]bool, error) {
	return []bool{m.follows[playlist]}, nil
}

func playlistWithTracks(id models.PlaylistID, name string, trackIDs ...string) *models.Context {
	tracks := make([]models.Track, len(trackIDs))
	for i, tid := range trackIDs {
		tracks[i] = models.Track{ID: models.TrackID(tid), Name: "Track " + tid}
	}
	return &models.Context{
		Kind:     models.KindPlaylist,
		Playlist: &models.Playlist{ID: id, Name: name},
		Tracks:   tracks,
	}
}

func newTestEngine(t *testing.T, svc *mockService) (*ImportEngine, string) {
	t.Helper()
	dir := t.TempDir()
	return NewImportEngine(svc, dir, shared.NewLogger(io.Discard)), dir
}

func addedIDs(calls [][]models.PlayableID) []string {
	var ids []string
	for _, call := range calls {
		for _, id := range call {
			ids = append(ids, id.String())
		}
	}
	return ids
}

func TestImport_FirstImport(t *testing.T) {
	svc := &mockService{playlists: map[models.PlaylistID]*models.Context{
		"A": playlistWithTracks("A", "Source", "t1", "t2", "t3"),
		"B": playlistWithTracks("B", "Target", "t2"),
	}}
	engine, dir := newTestEngine(t, svc)

	out, err := engine.Import(context.Background(), "A", "B", false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !strings.Contains(out, "Successfully imported 'Source' into 'Target'") {
		t.Errorf("output = %q", out)
	}

	// only tracks missing from the target are added
	got := addedIDs(svc.addCalls)
	if len(got) != 2 || got[0] != "t1" || got[1] != "t3" {
		t.Errorf("added tracks = %v, want [t1 t3]", got)
	}

	// the state file holds the hash line, a blank line, then id:name lines
	data, err := os.ReadFile(filepath.Join(dir, "B", "A"))
	if err != nil {
		t.Fatalf("state file missing: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("state file has %d lines, want 5: %q", len(lines), string(data))
	}
	wantHash := hashTrackIDs([]trackRef{{ID: "t1", Name: "Track t1"}, {ID: "t2", Name: "Track t2"}, {ID: "t3", Name: "Track t3"}})
	if lines[0] != wantHash {
		t.Errorf("hash line = %q, want %q", lines[0], wantHash)
	}
	if lines[1] != "" {
		t.Errorf("second line = %q, want empty", lines[1])
	}
	if lines[2] != "t1:Track t1" || lines[4] != "t3:Track t3" {
		t.Errorf("track lines = %v", lines[2:])
	}
}

func TestImport_Idempotent(t *testing.T) {
	svc := &mockService{playlists: map[models.PlaylistID]*models.Context{
		"A": playlistWithTracks("A", "Source", "t1", "t2"),
		"B": playlistWithTracks("B", "Target"),
	}}
	engine, _ := newTestEngine(t, svc)

	if _, err := engine.Import(context.Background(), "A", "B", false); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	addsBefore := len(svc.addCalls)

	out, err := engine.Import(context.Background(), "A", "B", false)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if !strings.Contains(out, "No updates to the import 'Source' for 'Target'") {
		t.Errorf("output = %q", out)
	}
	if len(svc.addCalls) != addsBefore || len(svc.removeCalls) != 0 {
		t.Errorf("no-op import made %d add and %d remove calls", len(svc.addCalls)-addsBefore, len(svc.removeCalls))
	}
}

func TestImport_DiffWithDeletion(t *testing.T) {
	// Source had {t1,t2,t3}, now has {t1,t4}. With delete=true: add t4,
	// remove t2 and t3 from the target.
	svc := &mockService{playlists: map[models.PlaylistID]*models.Context{
		"A": playlistWithTracks("A", "Source", "t1", "t2", "t3"),
		"B": playlistWithTracks("B", "Target"),
	}}
	engine, _ := newTestEngine(t, svc)

	if _, err := engine.Import(context.Background(), "A", "B", false); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	svc.addCalls = nil

	svc.playlists["A"] = playlistWithTracks("A", "Source", "t1", "t4")

	out, err := engine.Import(context.Background(), "A", "B", true)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}

	if got := addedIDs(svc.addCalls); len(got) != 1 || got[0] != "t4" {
		t.Errorf("added = %v, want [t4]", got)
	}
	removed := addedIDs(svc.removeCalls)
	if len(removed) != 2 || removed[0] != "t2" || removed[1] != "t3" {
		t.Errorf("removed = %v, want [t2 t3]", removed)
	}
	if !strings.Contains(out, "Added '1' new songs") {
		t.Errorf("output missing added count: %q", out)
	}
	if !strings.Contains(out, "t2:Track t2") || !strings.Contains(out, "t3:Track t3") {
		t.Errorf("output missing deleted tracks: %q", out)
	}
	if !strings.Contains(out, "These tracks have been deleted from the playlist.") {
		t.Errorf("output missing deletion note: %q", out)
	}
}

func TestImport_DiffWithoutDeletionOnlyReports(t *testing.T) {
	svc := &mockService{playlists: map[models.PlaylistID]*models.Context{
		"A": playlistWithTracks("A", "Source", "t1", "t2"),
		"B": playlistWithTracks("B", "Target"),
	}}
	engine, _ := newTestEngine(t, svc)

	if _, err := engine.Import(context.Background(), "A", "B", false); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	svc.playlists["A"] = playlistWithTracks("A", "Source", "t1")

	out, err := engine.Import(context.Background(), "A", "B", false)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if len(svc.removeCalls) != 0 {
		t.Error("delete=false removed tracks from the target")
	}
	if !strings.Contains(out, "t2:Track t2") {
		t.Errorf("dropped track not reported: %q", out)
	}
}

func TestFork(t *testing.T) {
	source := playlistWithTracks("A", "Mix", "t1", "t2")
	source.Playlist.Public = true
	source.Playlist.Desc = "a mix"
	svc := &mockService{playlists: map[models.PlaylistID]*models.Context{"A": source}}
	engine, _ := newTestEngine(t, svc)

	out, err := engine.Fork(context.Background(), "user-1", "A")
	if err != nil {
		t.Fatalf("Fork() error = %v", err)
	}

	if len(svc.created) != 1 {
		t.Fatalf("created %d playlists, want 1", len(svc.created))
	}
	created := svc.created[0]
	if created.Name != "Mix" || !created.Public || created.Desc != "a mix" {
		t.Errorf("created playlist = %+v", created)
	}
	if got := addedIDs(svc.addCalls); len(got) != 2 {
		t.Errorf("fork imported %v", got)
	}
	if !strings.Contains(out, "Forked A.") {
		t.Errorf("output = %q", out)
	}
}

func TestUpdateAll(t *testing.T) {
	svc := &mockService{
		playlists: map[models.PlaylistID]*models.Context{
			"A": playlistWithTracks("A", "Source", "t1"),
			"B": playlistWithTracks("B", "Target"),
			"C": playlistWithTracks("C", "Stale"),
		},
		follows: map[models.PlaylistID]bool{"B": true},
	}
	engine, dir := newTestEngine(t, svc)

	// B is fed by A; C is a target the user no longer follows.
	if _, err := engine.Import(context.Background(), "A", "B", false); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "C"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "C", "A"), []byte("0\n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := engine.UpdateAll(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("UpdateAll() error = %v", err)
	}
	if !strings.Contains(out, "No updates to the import 'Source' for 'Target'") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Not following playlist 'C'. Deleting import...") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "C")); !os.IsNotExist(err) {
		t.Error("unfollowed target's import state not deleted")
	}
}
