// submodule cmd contains command definitions
package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"spotd/internal/ipc"
)

func idOrNameFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "Item id",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Item name, resolved to the first search match",
		},
	}
}

// daemonCommand starts the control daemon.
func daemonCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "daemon",
		Usage:  "Run the control daemon",
		Action: r.Daemon,
	}
}

// getCommand retrieves Spotify data from the daemon as JSON.
func getCommand(r *Runner) *cli.Command {
	keyNames := make([]string, len(ipc.Keys))
	for i, key := range ipc.Keys {
		keyNames[i] = string(key)
	}

	return &cli.Command{
		Name:  "get",
		Usage: "Get Spotify data",
		Commands: []*cli.Command{
			{
				Name:      "key",
				Usage:     fmt.Sprintf("Get data by key (%v)", keyNames),
				ArgsUsage: "KEY",
				Action:    r.GetKey,
			},
			{
				Name:      "context",
				Usage:     "Get context data (playlist, album, artist)",
				ArgsUsage: "CONTEXT_TYPE",
				Flags:     idOrNameFlags(),
				Action:    r.GetContext,
			},
		},
	}
}

// playbackCommand interacts with the playback.
func playbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playback",
		Usage: "Interact with the playback",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a new playback",
				Commands: []*cli.Command{
					{
						Name:      "context",
						Usage:     "Start a context playback",
						ArgsUsage: "CONTEXT_TYPE",
						Flags:     idOrNameFlags(),
						Action:    r.PlaybackStartContext,
					},
					{
						Name:  "liked",
						Usage: "Start playback of the user's liked tracks",
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Maximum number of liked tracks to play",
								Value: 200,
							},
							&cli.BoolFlag{
								Name:  "random",
								Usage: "Shuffle the liked tracks before playing",
							},
						},
						Action: r.PlaybackStartLiked,
					},
					{
						Name:      "radio",
						Usage:     "Start the radio of an item",
						ArgsUsage: "ITEM_TYPE",
						Flags:     idOrNameFlags(),
						Action:    r.PlaybackStartRadio,
					},
				},
			},
			{
				Name:   "play-pause",
				Usage:  "Toggle between play and pause",
				Action: r.PlaybackSimple,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Action: r.PlaybackSimple,
			},
			{
				Name:   "previous",
				Usage:  "Skip to the previous track",
				Action: r.PlaybackSimple,
			},
			{
				Name:   "shuffle",
				Usage:  "Toggle the shuffle mode",
				Action: r.PlaybackSimple,
			},
			{
				Name:   "repeat",
				Usage:  "Cycle the repeat mode",
				Action: r.PlaybackSimple,
			},
			{
				Name:      "volume",
				Usage:     "Set the volume percentage",
				ArgsUsage: "PERCENT",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "offset",
						Usage: "Treat PERCENT as an offset of the current volume",
					},
				},
				Action: r.PlaybackVolume,
			},
			{
				Name:      "seek",
				Usage:     "Seek by an offset in milliseconds",
				ArgsUsage: "POSITION_OFFSET_MS",
				Action:    r.PlaybackSeek,
			},
		},
	}
}

// connectCommand connects the playback to a device.
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "connect",
		Usage:  "Connect the playback to a device",
		Flags:  idOrNameFlags(),
		Action: r.Connect,
	}
}

// likeCommand saves the currently playing track.
func likeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "like",
		Usage: "Like the currently playing track",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "unlike",
				Usage: "Remove the track from the liked tracks instead",
			},
		},
		Action: r.Like,
	}
}

// playlistCommand manages the user's playlists.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "Create a new playlist",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "public", Usage: "Make the playlist public"},
					&cli.BoolFlag{Name: "collab", Usage: "Make the playlist collaborative"},
					&cli.StringFlag{Name: "desc", Usage: "Playlist description"},
				},
				Action: r.PlaylistNew,
			},
			{
				Name:      "delete",
				Usage:     "Delete/unfollow a playlist",
				ArgsUsage: "ID",
				Action:    r.PlaylistDelete,
			},
			{
				Name:   "list",
				Usage:  "List the user's playlists",
				Action: r.PlaylistList,
			},
			{
				Name:  "import",
				Usage: "Import a playlist into another playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Source playlist id", Required: true},
					&cli.StringFlag{Name: "to", Usage: "Target playlist id", Required: true},
					&cli.BoolFlag{Name: "delete", Usage: "Also delete tracks the source dropped"},
				},
				Action: r.PlaylistImport,
			},
			{
				Name:      "fork",
				Usage:     "Fork a playlist into a new playlist owned by the user",
				ArgsUsage: "ID",
				Action:    r.PlaylistFork,
			},
			{
				Name:  "update",
				Usage: "Re-run playlist imports",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Only update imports of this target playlist"},
					&cli.BoolFlag{Name: "delete", Usage: "Also delete tracks the sources dropped"},
				},
				Action: r.PlaylistUpdate,
			},
		},
	}
}
