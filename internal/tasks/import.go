// package tasks implements playlist maintenance operations running on top of
// the remote facade, chiefly the content-addressed playlist import engine.
package tasks

import (
	"bufio"
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"spotd/internal/models"
	"spotd/internal/shared"
)

// Service is the surface of the remote facade used by the import engine.
type Service interface {
	PlaylistContext(ctx context.Context, id models.PlaylistID) (*models.Context, error)
	CreatePlaylist(ctx context.Context, user models.UserID, name string, public, collab bool, desc string) (*models.Playlist, error)
	AddItemsToPlaylist(ctx context.Context, playlist models.PlaylistID, ids []models.PlayableID) error
	RemoveAllOccurrences(ctx context.Context, playlist models.PlaylistID, ids []models.PlayableID) error
	CheckFollowPlaylist(ctx context.Context, playlist models.PlaylistID, users []models.UserID) ([]bool, error)
}

// ImportEngine maintains directional content-level synchronisation between an
// import-from playlist and an import-to playlist, persisted as one state file
// per (target, source) pair under importsDir.
type ImportEngine struct {
	svc        Service
	importsDir string
	logger     *log.Logger
}

// NewImportEngine creates an import engine writing its state below importsDir.
func NewImportEngine(svc Service, importsDir string, logger *log.Logger) *ImportEngine {
	return &ImportEngine{svc: svc, importsDir: importsDir, logger: logger}
}

// trackRef is one line of an import state file.
type trackRef struct {
	ID   models.TrackID
	Name string
}

func hashTrackIDs(refs []trackRef) string {
	hasher := fnv.New64a()
	for _, ref := range refs {
		hasher.Write([]byte(ref.ID))
	}
	return strconv.FormatUint(hasher.Sum64(), 10)
}

// stateFile returns the per-(target, source) import state file path.
func (e *ImportEngine) stateFile(to, from models.PlaylistID) string {
	return filepath.Join(e.importsDir, string(to), string(from))
}

// writeStateFile rewrites the import state file from scratch: hash line,
// blank line, then one "{id}:{name}" line per source track in order. The old
// file is removed first to avoid append-style corruption.
func writeStateFile(path, hash string, refs []trackRef) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create import folder: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove the old import file: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create import file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintln(w, hash)
	fmt.Fprintln(w)
	for _, ref := range refs {
		fmt.Fprintf(w, "%s:%s\n", ref.ID, ref.Name)
	}
	return w.Flush()
}

// readStateFile reads an import state file back into its hash and track list.
func readStateFile(path string) (string, []trackRef, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return "", nil, fmt.Errorf("import file %s is empty", path)
	}
	hash := scanner.Text()

	// consume the separator line
	scanner.Scan()

	var refs []trackRef
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, name, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		refs = append(refs, trackRef{ID: models.TrackID(id), Name: name})
	}
	return hash, refs, scanner.Err()
}

func (e *ImportEngine) playlistTracks(ctx context.Context, id models.PlaylistID) (*models.Playlist, []models.Track, error) {
	fetched, err := e.svc.PlaylistContext(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if fetched == nil || fetched.Kind != models.KindPlaylist || fetched.Playlist == nil {
		return nil, nil, fmt.Errorf("playlist %s: %w", id, shared.ErrNotFound)
	}
	return fetched.Playlist, fetched.Tracks, nil
}

// Import synchronises the import-from playlist into the import-to playlist.
//
// On first import, every source track missing from the target is added and
// the source's ordered state is persisted. On subsequent imports, an
// unchanged source hash is a no-op; otherwise new tracks are added, tracks
// dropped by the source are reported, and with delete set they are removed
// from the target as well.
func (e *ImportEngine) Import(ctx context.Context, from, to models.PlaylistID, delete bool) (string, error) {
	fromPlaylist, fromTracks, err := e.playlistTracks(ctx, from)
	if err != nil {
		return "", fmt.Errorf("cannot import from %s: %w", from, err)
	}
	toPlaylist, toTracks, err := e.playlistTracks(ctx, to)
	if err != nil {
		return "", fmt.Errorf("cannot import to %s: %w", to, err)
	}

	inTarget := make(map[models.TrackID]bool, len(toTracks))
	for _, t := range toTracks {
		inTarget[t.ID] = true
	}

	refs := make([]trackRef, len(fromTracks))
	for i, t := range fromTracks {
		refs[i] = trackRef{ID: t.ID, Name: t.Name}
	}
	hash := hashTrackIDs(refs)

	path := e.stateFile(to, from)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return e.firstImport(ctx, path, hash, refs, fromPlaylist, toPlaylist, inTarget)
	}

	oldHash, oldRefs, err := readStateFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read import file: %w", err)
	}

	if oldHash == hash {
		return fmt.Sprintf("No updates to the import '%s' for '%s'\n", fromPlaylist.Name, toPlaylist.Name), nil
	}

	return e.subsequentImport(ctx, path, hash, refs, oldRefs, fromPlaylist, toPlaylist, inTarget, delete)
}

func (e *ImportEngine) firstImport(ctx context.Context, path, hash string, refs []trackRef, from, to *models.Playlist, inTarget map[models.TrackID]bool) (string, error) {
	if err := writeStateFile(path, hash, refs); err != nil {
		return "", err
	}

	var missing []models.PlayableID
	for _, ref := range refs {
		if !inTarget[ref.ID] {
			missing = append(missing, ref.ID)
		}
	}
	if len(missing) > 0 {
		if err := e.svc.AddItemsToPlaylist(ctx, to.ID, missing); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("Successfully imported '%s' into '%s'.\n%d songs were added.\n", from.Name, to.Name, len(missing)), nil
}

func (e *ImportEngine) subsequentImport(ctx context.Context, path, hash string, refs, oldRefs []trackRef, from, to *models.Playlist, inTarget map[models.TrackID]bool, delete bool) (string, error) {
	if err := writeStateFile(path, hash, refs); err != nil {
		return "", err
	}

	oldSet := make(map[trackRef]bool, len(oldRefs))
	for _, ref := range oldRefs {
		oldSet[ref] = true
	}
	newSet := make(map[trackRef]bool, len(refs))
	for _, ref := range refs {
		newSet[ref] = true
	}

	// add tracks new to the source and missing from the target
	var added []models.PlayableID
	for _, ref := range refs {
		if !oldSet[ref] && !inTarget[ref.ID] {
			added = append(added, ref.ID)
		}
	}
	if len(added) > 0 {
		if err := e.svc.AddItemsToPlaylist(ctx, to.ID, added); err != nil {
			return "", err
		}
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Updated the import '%s' for '%s'.\nAdded '%d' new songs.\n", from.Name, to.Name, len(added))

	// report tracks the source dropped since the previous import
	var removed []models.PlayableID
	for _, ref := range oldRefs {
		if newSet[ref] {
			continue
		}
		if len(removed) == 0 {
			result.WriteString("The import has deleted these tracks:\n")
		}
		fmt.Fprintf(&result, "%s:%s\n", ref.ID, ref.Name)
		removed = append(removed, ref.ID)
	}

	if delete && len(removed) > 0 {
		if err := e.svc.RemoveAllOccurrences(ctx, to.ID, removed); err != nil {
			return "", err
		}
		result.WriteString("These tracks have been deleted from the playlist.\n")
	}

	return result.String(), nil
}

// Fork creates a new playlist owned by user copying the source's name, flags
// and description, then first-imports the source into it without deletion.
func (e *ImportEngine) Fork(ctx context.Context, user models.UserID, from models.PlaylistID) (string, error) {
	source, _, err := e.playlistTracks(ctx, from)
	if err != nil {
		return "", fmt.Errorf("cannot fork %s: %w", from, err)
	}

	created, err := e.svc.CreatePlaylist(ctx, user, source.Name, source.Public, source.Collaborative, source.Desc)
	if err != nil {
		return "", err
	}

	result := fmt.Sprintf("Forked %s.\nNew playlist: %s:%s\n", from, created.Name, created.ID)

	imported, err := e.Import(ctx, from, created.ID, false)
	if err != nil {
		return "", err
	}
	return result + imported, nil
}

// UpdateTarget re-runs every import feeding one target playlist. A target no
// longer followed by the user is skipped.
func (e *ImportEngine) UpdateTarget(ctx context.Context, user models.UserID, to models.PlaylistID, delete bool) (string, error) {
	follows, err := e.svc.CheckFollowPlaylist(ctx, to, []models.UserID{user})
	if err != nil {
		return "", err
	}
	if len(follows) == 0 || !follows[0] {
		return fmt.Sprintf("Not following '%s'\n", to), nil
	}

	toDir := filepath.Join(e.importsDir, string(to))
	entries, err := os.ReadDir(toDir)
	if err != nil {
		return "", fmt.Errorf("no imports found for '%s': %w", to, err)
	}

	var result strings.Builder
	for _, entry := range entries {
		out, err := e.Import(ctx, models.PlaylistID(entry.Name()), to, delete)
		if err != nil {
			return "", err
		}
		result.WriteString(out)
	}
	return result.String(), nil
}

// UpdateAll walks the imports tree and re-runs every import. Import state of
// targets no longer followed by the user is deleted.
func (e *ImportEngine) UpdateAll(ctx context.Context, user models.UserID, delete bool) (string, error) {
	entries, err := os.ReadDir(e.importsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "No imports found.\n", nil
		}
		return "", err
	}

	var result strings.Builder
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		to := models.PlaylistID(entry.Name())

		follows, err := e.svc.CheckFollowPlaylist(ctx, to, []models.UserID{user})
		if err != nil {
			return "", err
		}
		if len(follows) == 0 || !follows[0] {
			// stale import state of an unfollowed target
			if err := os.RemoveAll(filepath.Join(e.importsDir, string(to))); err != nil {
				return "", err
			}
			fmt.Fprintf(&result, "Not following playlist '%s'. Deleting import...\n", to)
			continue
		}

		out, err := e.UpdateTarget(ctx, user, to, delete)
		if err != nil {
			return "", err
		}
		result.WriteString(out)
	}
	return result.String(), nil
}
