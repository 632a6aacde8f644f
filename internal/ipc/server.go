package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"spotd/internal/client"
	"spotd/internal/models"
	"spotd/internal/shared"
	"spotd/internal/tasks"
)

// Server is the daemon's IPC socket listener. A single task owns the socket;
// clients multiplex via their datagram source addresses.
type Server struct {
	client *client.Client
	engine *tasks.ImportEngine
	logger *log.Logger

	conn *net.UDPConn
}

// NewServer creates an IPC server bound to 127.0.0.1:port.
func NewServer(c *client.Client, engine *tasks.ImportEngine, port int, logger *log.Logger) (*Server, error) {
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind the client socket: %w", err)
	}

	logger.Info("started a client socket", "addr", conn.LocalAddr())
	return &Server{client: c, engine: engine, logger: logger, conn: conn}, nil
}

// Port returns the bound UDP port.
func (s *Server) Port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

// Close shuts the socket down.
func (s *Server) Close() error { return s.conn.Close() }

// Serve handles socket requests until ctx is cancelled. Every handler error
// is rendered into an Err response; a request is never dropped silently.
func (s *Server) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	buf := make([]byte, MaxChunkSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("failed to receive from the socket", "error", err)
			continue
		}

		var request Request
		if err := json.Unmarshal(buf[:n], &request); err != nil {
			s.logger.Error("cannot deserialize the socket request", "error", err)
			continue
		}

		go s.handle(ctx, request, addr)
	}
}

func (s *Server) handle(ctx context.Context, request Request, addr *net.UDPAddr) {
	var response Response
	data, err := s.handleRequest(ctx, request)
	if err != nil {
		s.logger.Error("failed to handle socket request", "error", err)
		response = Response{Err: []byte(err.Error())}
	} else {
		response = Response{Ok: data}
	}

	if err := s.sendResponse(response, addr); err != nil {
		s.logger.Warn("failed to send the socket response", "error", err)
	}
}

// sendResponse streams the serialised response as chunked datagrams followed
// by a zero-length terminator.
func (s *Server) sendResponse(response Response, addr *net.UDPAddr) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}

	for len(data) > 0 {
		n := min(MaxChunkSize, len(data))
		if _, err := s.conn.WriteToUDP(data[:n], addr); err != nil {
			return err
		}
		data = data[n:]
	}
	_, err = s.conn.WriteToUDP(nil, addr)
	return err
}

func (s *Server) handleRequest(ctx context.Context, request Request) ([]byte, error) {
	switch {
	case request.Get != nil:
		return s.handleGet(ctx, *request.Get)
	case request.Playback != nil:
		return nil, s.handlePlayback(ctx, *request.Playback)
	case request.Connect != nil:
		return nil, s.handleConnect(ctx, *request.Connect)
	case request.Like != nil:
		return nil, s.handleLike(ctx, *request.Like)
	case request.Playlist != nil:
		return s.handlePlaylist(ctx, *request.Playlist)
	default:
		return nil, fmt.Errorf("%w: empty request", shared.ErrInvalidRequest)
	}
}

func (s *Server) handleGet(ctx context.Context, request GetRequest) ([]byte, error) {
	switch {
	case request.Key != nil:
		return s.handleGetKey(ctx, *request.Key)
	case request.Context != nil:
		return s.handleGetContext(ctx, *request.Context)
	default:
		return nil, fmt.Errorf("%w: empty get request", shared.ErrInvalidRequest)
	}
}

func (s *Server) handleGetKey(ctx context.Context, key Key) ([]byte, error) {
	api := s.client.API()

	var data any
	var err error
	switch key {
	case KeyPlayback:
		data, err = api.CurrentPlayback(ctx)
	case KeyDevices:
		data, err = api.Devices(ctx)
	case KeyUserPlaylists:
		data, err = api.UserPlaylists(ctx)
	case KeyUserLikedTracks:
		data, err = api.SavedTracks(ctx)
	case KeyUserTopTracks:
		data, err = api.TopTracks(ctx)
	case KeyUserSavedAlbums:
		data, err = api.SavedAlbums(ctx)
	case KeyUserFollowedArtists:
		data, err = api.FollowedArtists(ctx)
	case KeyQueue:
		data, err = api.UserQueue(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown key %q", shared.ErrInvalidRequest, key)
	}
	if err != nil {
		return nil, err
	}
	return shared.MarshalJSON(data, false)
}

// resolveItemID resolves an IdOrName into a typed item id. A name is resolved
// by searching the item type and taking the first match.
func (s *Server) resolveItemID(ctx context.Context, typ ItemType, idOrName IDOrName) (models.ItemID, error) {
	if idOrName.ID != "" {
		switch typ {
		case ItemPlaylist:
			return models.PlaylistID(idOrName.ID), nil
		case ItemAlbum:
			return models.AlbumID(idOrName.ID), nil
		case ItemArtist:
			return models.ArtistID(idOrName.ID), nil
		case ItemTrack:
			return models.TrackID(idOrName.ID), nil
		default:
			return nil, fmt.Errorf("%w: unknown item type %q", shared.ErrInvalidRequest, typ)
		}
	}

	name := idOrName.Name
	notFound := fmt.Errorf("Cannot find %s with name='%s'", typ, name)

	results, err := s.client.API().SearchType(ctx, name, models.Kind(typ))
	if err != nil {
		return nil, err
	}
	switch typ {
	case ItemPlaylist:
		if len(results.Playlists) == 0 {
			return nil, notFound
		}
		return results.Playlists[0].ID, nil
	case ItemAlbum:
		if len(results.Albums) == 0 {
			return nil, notFound
		}
		return results.Albums[0].ID, nil
	case ItemArtist:
		if len(results.Artists) == 0 {
			return nil, notFound
		}
		return results.Artists[0].ID, nil
	case ItemTrack:
		if len(results.Tracks) == 0 {
			return nil, notFound
		}
		return results.Tracks[0].ID, nil
	default:
		return nil, fmt.Errorf("%w: unknown item type %q", shared.ErrInvalidRequest, typ)
	}
}

func (s *Server) resolveContextID(ctx context.Context, typ ContextType, idOrName IDOrName) (models.ContextID, error) {
	id, err := s.resolveItemID(ctx, ItemType(typ), idOrName)
	if err != nil {
		return nil, err
	}
	contextID, ok := id.(models.ContextID)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not name a context", shared.ErrInvalidRequest, id)
	}
	return contextID, nil
}

func (s *Server) handleGetContext(ctx context.Context, request ContextRequest) ([]byte, error) {
	id, err := s.resolveContextID(ctx, request.Type, request.IDOrName)
	if err != nil {
		return nil, err
	}

	api := s.client.API()
	var fetched *models.Context
	switch typed := id.(type) {
	case models.PlaylistID:
		fetched, err = api.PlaylistContext(ctx, typed)
	case models.AlbumID:
		fetched, err = api.AlbumContext(ctx, typed)
	case models.ArtistID:
		fetched, err = api.ArtistContext(ctx, typed)
	default:
		return nil, fmt.Errorf("%w: unsupported context type %q", shared.ErrInvalidRequest, request.Type)
	}
	if err != nil {
		return nil, err
	}
	return shared.MarshalJSON(fetched, false)
}

func (s *Server) handlePlayback(ctx context.Context, command Command) error {
	request, err := s.playerRequestFor(ctx, command)
	if err != nil {
		return err
	}

	if err := s.client.HandlePlayerRequest(ctx, request); err != nil {
		return err
	}
	s.client.UpdatePlayback(ctx)
	return nil
}

func (s *Server) playerRequestFor(ctx context.Context, command Command) (client.PlayerRequest, error) {
	st := s.client.State()

	switch {
	case command.StartContext != nil:
		id, err := s.resolveContextID(ctx, command.StartContext.Type, command.StartContext.IDOrName)
		if err != nil {
			return nil, err
		}
		return client.StartPlayback{Playback: models.PlaybackContext(id, nil)}, nil

	case command.StartLikedTracks != nil:
		tracks, err := s.client.API().SavedTracks(ctx)
		if err != nil {
			return nil, err
		}
		if command.StartLikedTracks.Random {
			rand.Shuffle(len(tracks), func(i, j int) {
				tracks[i], tracks[j] = tracks[j], tracks[i]
			})
		}
		if limit := command.StartLikedTracks.Limit; limit > 0 && len(tracks) > limit {
			tracks = tracks[:limit]
		}
		ids := make([]models.PlayableID, len(tracks))
		for i, t := range tracks {
			ids[i] = t.ID
		}
		return client.StartPlayback{Playback: models.PlaybackURIs(ids, nil)}, nil

	case command.StartRadio != nil:
		seed, err := s.resolveItemID(ctx, command.StartRadio.Type, command.StartRadio.IDOrName)
		if err != nil {
			return nil, err
		}
		tracks, err := s.client.API().RadioTracks(ctx, string(seed.URI()))
		if err != nil {
			return nil, err
		}
		ids := make([]models.PlayableID, len(tracks))
		for i, t := range tracks {
			ids[i] = t.ID
		}
		return client.StartPlayback{Playback: models.PlaybackURIs(ids, nil)}, nil

	case command.PlayPause:
		return client.ResumePause{}, nil
	case command.Next:
		return client.NextTrack{}, nil
	case command.Previous:
		return client.PreviousTrack{}, nil
	case command.Shuffle:
		return client.Shuffle{}, nil
	case command.Repeat:
		return client.Repeat{}, nil

	case command.Volume != nil:
		playback := st.BufferedPlayback()
		if playback == nil {
			return nil, shared.ErrNoActivePlayback
		}
		percent := command.Volume.Percent
		if command.Volume.IsOffset {
			percent = clamp(playback.Volume+percent, 0, 100)
		}
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("%w: volume percent %d out of range", shared.ErrInvalidArgument, percent)
		}
		return client.Volume{Percent: percent}, nil

	case command.SeekOffsetMS != nil:
		progress, ok := st.PlaybackProgress()
		if !ok {
			return nil, fmt.Errorf("%w: playback has no progress", shared.ErrNoActivePlayback)
		}
		position := progress + time.Duration(*command.SeekOffsetMS)*time.Millisecond
		if position < 0 {
			position = 0
		}
		return client.SeekTrack{Position: position}, nil

	default:
		return nil, fmt.Errorf("%w: empty playback command", shared.ErrInvalidRequest)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Server) handleConnect(ctx context.Context, idOrName IDOrName) error {
	id := idOrName.ID
	if id == "" {
		devices, err := s.client.API().Devices(ctx)
		if err != nil {
			return err
		}
		for _, d := range devices {
			if d.Name == idOrName.Name {
				id = d.ID
				break
			}
		}
		if id == "" {
			return fmt.Errorf("%w: no device with name=%s found", shared.ErrNotFound, idOrName.Name)
		}
	}

	return s.client.API().TransferPlayback(ctx, id, false)
}

func (s *Server) handleLike(ctx context.Context, request LikeRequest) error {
	track := s.client.State().CurrentPlayingTrack()
	if track == nil {
		return nil
	}

	if request.Unlike {
		return s.client.API().RemoveSavedTracks(ctx, []models.TrackID{track.ID})
	}
	return s.client.API().SaveTracks(ctx, []models.TrackID{track.ID})
}

func (s *Server) currentUserID() (models.UserID, error) {
	user := s.client.State().CurrentUser()
	if user == nil {
		return "", fmt.Errorf("%w: current user is unknown", shared.ErrNotAuthenticated)
	}
	return user.ID, nil
}

func (s *Server) handlePlaylist(ctx context.Context, command PlaylistCommand) ([]byte, error) {
	api := s.client.API()

	switch {
	case command.New != nil:
		user, err := s.currentUserID()
		if err != nil {
			return nil, err
		}
		playlist, err := api.CreatePlaylist(ctx, user, command.New.Name, command.New.Public, command.New.Collab, command.New.Description)
		if err != nil {
			return nil, err
		}
		return fmt.Appendf(nil, "Playlist '%s' with id '%s' was created.", playlist.Name, playlist.ID), nil

	case command.Delete != nil:
		user, err := s.currentUserID()
		if err != nil {
			return nil, err
		}
		id := models.PlaylistID(*command.Delete)
		follows, err := api.CheckFollowPlaylist(ctx, id, []models.UserID{user})
		if err != nil {
			return nil, fmt.Errorf("could not find playlist %s: %w", id, err)
		}
		if len(follows) == 0 || !follows[0] {
			return fmt.Appendf(nil, "Playlist '%s' was not followed by the user, nothing to be done.", id), nil
		}
		if err := api.UnfollowPlaylist(ctx, id); err != nil {
			return nil, err
		}
		return fmt.Appendf(nil, "Playlist '%s' was deleted/unfollowed", id), nil

	case command.List:
		playlists, err := api.UserPlaylists(ctx)
		if err != nil {
			return nil, err
		}
		var out strings.Builder
		for _, p := range playlists {
			fmt.Fprintf(&out, "%s: %s\n", p.ID, p.Name)
		}
		return []byte(strings.TrimRight(out.String(), "\n")), nil

	case command.Import != nil:
		out, err := s.engine.Import(ctx, models.PlaylistID(command.Import.From), models.PlaylistID(command.Import.To), command.Import.Delete)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil

	case command.Fork != nil:
		user, err := s.currentUserID()
		if err != nil {
			return nil, err
		}
		out, err := s.engine.Fork(ctx, user, models.PlaylistID(*command.Fork))
		if err != nil {
			return nil, err
		}
		return []byte(out), nil

	case command.Update != nil:
		user, err := s.currentUserID()
		if err != nil {
			return nil, err
		}
		var out string
		if command.Update.ID != "" {
			out, err = s.engine.UpdateTarget(ctx, user, models.PlaylistID(command.Update.ID), command.Update.Delete)
		} else {
			out, err = s.engine.UpdateAll(ctx, user, command.Update.Delete)
		}
		if err != nil {
			return nil, err
		}
		return []byte(out), nil

	default:
		return nil, fmt.Errorf("%w: empty playlist command", shared.ErrInvalidRequest)
	}
}
