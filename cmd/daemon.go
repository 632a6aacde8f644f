package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"spotd/internal/api"
	"spotd/internal/auth"
	"spotd/internal/client"
	"spotd/internal/clipboard"
	"spotd/internal/config"
	"spotd/internal/ipc"
	"spotd/internal/notify"
	"spotd/internal/shared"
	"spotd/internal/state"
	"spotd/internal/tasks"
)

// Daemon boots the control daemon: state store, remote facade, request
// scheduler, IPC socket server and the background event watchers.
func (r *Runner) Daemon(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load the configuration: %w", err)
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.App.ClientPort = port
	}

	fileLogger, err := shared.NewFileLogger(filepath.Join(cfg.CacheDir, "spotd.log"))
	if err != nil {
		return err
	}

	session, err := newSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initial authentication failed: %w", err)
	}

	st := state.New(cfg)
	// the clipboard capability is picked once at boot and handed to the UI
	// collaborator through the state handle
	st.Clipboard = clipboard.NewProvider()

	tokens := auth.NewManager(session, cfg.Client.ClientID, cfg.TokenCachePath())
	facade := api.New(tokens, session, nil, fileLogger)

	daemon := client.New(facade, st, notify.New(), fileLogger)
	engine := tasks.NewImportEngine(facade, cfg.ImportsDir(), fileLogger)

	server, err := ipc.NewServer(daemon, engine, cfg.App.ClientPort, fileLogger)
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go daemon.StartRequestHandler(ctx)
	go daemon.StartPlayerEventWatchers(ctx)
	go server.Serve(ctx)

	// populate a fresh session's user data
	daemon.Send(client.GetCurrentUser{})
	daemon.Send(client.GetUserPlaylists{})
	daemon.Send(client.GetUserFollowedArtists{})
	daemon.Send(client.GetUserSavedAlbums{})
	daemon.Send(client.GetUserSavedTracks{})
	daemon.Send(client.GetCurrentPlayback{})

	r.logger.Info("daemon is running", "port", cfg.App.ClientPort)
	<-ctx.Done()
	return nil
}

// newSession builds the session handle from the auth collaborator. Without an
// integrated audio backend the session exposes no device id and no Mercury
// channel.
func newSession(ctx context.Context, cfg *config.Config) (api.Session, error) {
	if cfg.Client.ClientID == "" || cfg.Client.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client credentials in client.toml", shared.ErrInvalidConfig)
	}
	return newWebSession(cfg), nil
}
