package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"spotd/internal/config"
	"spotd/internal/shared"
)

var logger *log.Logger

func main() {
	logger = shared.NewLogger(nil)

	runner := NewRunner(logger)

	app := &cli.Command{
		Name:    "spotd",
		Usage:   "A terminal-resident Spotify client daemon and its companion CLI",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port of the daemon's client socket (defaults to the configured client_port)",
			},
		},
		Commands: []*cli.Command{
			daemonCommand(runner),
			getCommand(runner),
			playbackCommand(runner),
			connectCommand(runner),
			likeCommand(runner),
			playlistCommand(runner),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// loadConfig resolves the configuration folders and loads the frozen
// configuration value consumed by the daemon and the CLI.
func loadConfig() (*config.Config, error) {
	configDir, err := config.ConfigFolderPath()
	if err != nil {
		return nil, err
	}
	cacheDir, err := config.CacheFolderPath()
	if err != nil {
		return nil, err
	}
	return config.Load(configDir, cacheDir)
}
