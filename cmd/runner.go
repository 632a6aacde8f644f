package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"spotd/internal/ipc"
	"spotd/internal/shared"
)

const callTimeout = 2 * time.Minute

// Runner holds the CLI action implementations.
type Runner struct {
	logger *log.Logger
}

func NewRunner(logger *log.Logger) *Runner {
	return &Runner{logger: logger}
}

// socketPort resolves the daemon's socket port from the --port flag or the
// configuration.
func (r *Runner) socketPort(cmd *cli.Command) (int, error) {
	if port := cmd.Int("port"); port != 0 {
		return port, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return 0, fmt.Errorf("%w: cannot resolve the daemon port", shared.ErrMissingConfig)
	}
	return cfg.App.ClientPort, nil
}

// call sends a request to the daemon, prints the response and exits: 0 for
// Ok with the payload on stdout, 1 for Err with the message on stderr.
func (r *Runner) call(cmd *cli.Command, request ipc.Request) error {
	port, err := r.socketPort(cmd)
	if err != nil {
		return err
	}

	client, err := ipc.Dial(port)
	if err != nil {
		return err
	}
	defer client.Close()

	response, err := client.Call(request, callTimeout)
	if err != nil {
		return err
	}

	if response.Err != nil {
		fmt.Fprintln(os.Stderr, string(response.Err))
		os.Exit(1)
	}
	if len(response.Ok) > 0 {
		fmt.Println(string(response.Ok))
	}
	os.Exit(0)
	return nil
}

func idOrNameArg(cmd *cli.Command) (ipc.IDOrName, error) {
	id := cmd.String("id")
	name := cmd.String("name")
	if (id == "") == (name == "") {
		return ipc.IDOrName{}, fmt.Errorf("%w: exactly one of --id and --name is required", shared.ErrInvalidArgument)
	}
	return ipc.IDOrName{ID: id, Name: name}, nil
}

// GetKey handles `get key KEY`.
func (r *Runner) GetKey(ctx context.Context, cmd *cli.Command) error {
	key := ipc.Key(cmd.Args().First())
	valid := false
	for _, k := range ipc.Keys {
		if k == key {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: unknown key %q", shared.ErrInvalidArgument, key)
	}

	return r.call(cmd, ipc.Request{Get: &ipc.GetRequest{Key: &key}})
}

func contextTypeArg(cmd *cli.Command) (ipc.ContextType, error) {
	typ := ipc.ContextType(cmd.Args().First())
	switch typ {
	case ipc.ContextPlaylist, ipc.ContextAlbum, ipc.ContextArtist:
		return typ, nil
	default:
		return "", fmt.Errorf("%w: unknown context type %q", shared.ErrInvalidArgument, typ)
	}
}

// GetContext handles `get context CONTEXT_TYPE (--id|--name)`.
func (r *Runner) GetContext(ctx context.Context, cmd *cli.Command) error {
	typ, err := contextTypeArg(cmd)
	if err != nil {
		return err
	}
	idOrName, err := idOrNameArg(cmd)
	if err != nil {
		return err
	}

	return r.call(cmd, ipc.Request{Get: &ipc.GetRequest{
		Context: &ipc.ContextRequest{Type: typ, IDOrName: idOrName},
	}})
}

// PlaybackStartContext handles `playback start context CONTEXT_TYPE`.
func (r *Runner) PlaybackStartContext(ctx context.Context, cmd *cli.Command) error {
	typ, err := contextTypeArg(cmd)
	if err != nil {
		return err
	}
	idOrName, err := idOrNameArg(cmd)
	if err != nil {
		return err
	}

	return r.call(cmd, ipc.Request{Playback: &ipc.Command{
		StartContext: &ipc.StartContextCommand{Type: typ, IDOrName: idOrName},
	}})
}

// PlaybackStartLiked handles `playback start liked`.
func (r *Runner) PlaybackStartLiked(ctx context.Context, cmd *cli.Command) error {
	return r.call(cmd, ipc.Request{Playback: &ipc.Command{
		StartLikedTracks: &ipc.StartLikedTracksCommand{
			Limit:  cmd.Int("limit"),
			Random: cmd.Bool("random"),
		},
	}})
}

// PlaybackStartRadio handles `playback start radio ITEM_TYPE`.
func (r *Runner) PlaybackStartRadio(ctx context.Context, cmd *cli.Command) error {
	typ := ipc.ItemType(cmd.Args().First())
	switch typ {
	case ipc.ItemTrack, ipc.ItemArtist, ipc.ItemAlbum, ipc.ItemPlaylist:
	default:
		return fmt.Errorf("%w: unknown item type %q", shared.ErrInvalidArgument, typ)
	}
	idOrName, err := idOrNameArg(cmd)
	if err != nil {
		return err
	}

	return r.call(cmd, ipc.Request{Playback: &ipc.Command{
		StartRadio: &ipc.StartRadioCommand{Type: typ, IDOrName: idOrName},
	}})
}

// PlaybackSimple handles the niladic playback commands.
func (r *Runner) PlaybackSimple(ctx context.Context, cmd *cli.Command) error {
	command := &ipc.Command{}
	switch cmd.Name {
	case "play-pause":
		command.PlayPause = true
	case "next":
		command.Next = true
	case "previous":
		command.Previous = true
	case "shuffle":
		command.Shuffle = true
	case "repeat":
		command.Repeat = true
	default:
		return fmt.Errorf("%w: unknown playback command %q", shared.ErrInvalidArgument, cmd.Name)
	}
	return r.call(cmd, ipc.Request{Playback: command})
}

// PlaybackVolume handles `playback volume PERCENT [--offset]`.
func (r *Runner) PlaybackVolume(ctx context.Context, cmd *cli.Command) error {
	percent, err := strconv.Atoi(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("%w: invalid volume percent %q", shared.ErrInvalidArgument, cmd.Args().First())
	}

	return r.call(cmd, ipc.Request{Playback: &ipc.Command{
		Volume: &ipc.VolumeCommand{Percent: percent, IsOffset: cmd.Bool("offset")},
	}})
}

// PlaybackSeek handles `playback seek POSITION_OFFSET_MS`.
func (r *Runner) PlaybackSeek(ctx context.Context, cmd *cli.Command) error {
	offset, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid seek offset %q", shared.ErrInvalidArgument, cmd.Args().First())
	}

	return r.call(cmd, ipc.Request{Playback: &ipc.Command{SeekOffsetMS: &offset}})
}

// Connect handles `connect (--id|--name)`.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	idOrName, err := idOrNameArg(cmd)
	if err != nil {
		return err
	}
	return r.call(cmd, ipc.Request{Connect: &idOrName})
}

// Like handles `like [--unlike]`.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	return r.call(cmd, ipc.Request{Like: &ipc.LikeRequest{Unlike: cmd.Bool("unlike")}})
}

// PlaylistNew handles `playlist new NAME`.
func (r *Runner) PlaylistNew(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidArgument)
	}

	return r.call(cmd, ipc.Request{Playlist: &ipc.PlaylistCommand{
		New: &ipc.NewPlaylistCommand{
			Name:        name,
			Public:      cmd.Bool("public"),
			Collab:      cmd.Bool("collab"),
			Description: cmd.String("desc"),
		},
	}})
}

// PlaylistDelete handles `playlist delete ID`.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}
	return r.call(cmd, ipc.Request{Playlist: &ipc.PlaylistCommand{Delete: &id}})
}

// PlaylistList handles `playlist list`.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	return r.call(cmd, ipc.Request{Playlist: &ipc.PlaylistCommand{List: true}})
}

// PlaylistImport handles `playlist import --from ID --to ID [--delete]`.
func (r *Runner) PlaylistImport(ctx context.Context, cmd *cli.Command) error {
	return r.call(cmd, ipc.Request{Playlist: &ipc.PlaylistCommand{
		Import: &ipc.ImportPlaylistCommand{
			From:   cmd.String("from"),
			To:     cmd.String("to"),
			Delete: cmd.Bool("delete"),
		},
	}})
}

// PlaylistFork handles `playlist fork ID`.
func (r *Runner) PlaylistFork(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}
	return r.call(cmd, ipc.Request{Playlist: &ipc.PlaylistCommand{Fork: &id}})
}

// PlaylistUpdate handles `playlist update [--id ID] [--delete]`.
func (r *Runner) PlaylistUpdate(ctx context.Context, cmd *cli.Command) error {
	return r.call(cmd, ipc.Request{Playlist: &ipc.PlaylistCommand{
		Update: &ipc.UpdatePlaylistCommand{
			ID:     cmd.String("id"),
			Delete: cmd.Bool("delete"),
		},
	}})
}
