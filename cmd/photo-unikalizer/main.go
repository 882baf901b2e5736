package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Context & signals: used for cancellation and graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		zlog.Logger.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "photo-unikalizer",
		Short:         "Batch photo transcoder with metadata rewriting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
		return cfg, nil
	}

	root.AddCommand(
		newRunCmd(loadConfig),
		newServeCmd(loadConfig),
		newWorkerCmd(loadConfig),
		newInspectCmd(),
		newCatalogCmd(),
		newVersionCmd(),
	)

	return root
}
