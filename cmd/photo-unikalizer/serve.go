package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	catalogapi "github.com/YALOKGARua/PhotoUnikalizer/internal/api/handlers/catalog"
	jobapi "github.com/YALOKGARua/PhotoUnikalizer/internal/api/handlers/job"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/api/router"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/api/server"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/config"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			jh := jobapi.NewHandler(a.manager, nil)
			if a.repo != nil {
				jh = jobapi.NewHandler(a.manager, a.repo)
			}

			// Start HTTP server in a separate goroutine.
			r := router.Setup(jh, catalogapi.NewHandler(), zlog.Logger)
			s := server.New(cfg.Server.HTTPPort, r)
			serveErr := make(chan error, 1)
			go func() {
				zlog.Logger.Info().Str("addr", cfg.Server.HTTPPort).Msg("starting server")
				if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
			}()

			// Block until context is canceled (SIGINT/SIGTERM) or the server fails.
			select {
			case <-ctx.Done():
				zlog.Logger.Info().Msg("context done")
			case err := <-serveErr:
				return err
			}

			// Graceful shutdown with timeout for HTTP server.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			zlog.Logger.Info().Msg("shutting down server")
			if err := s.Shutdown(shutdownCtx); err != nil {
				zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
			}
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
			}

			// Stop the running batch at the next file and wait for it.
			_ = a.manager.Cancel()
			a.manager.Wait()

			return nil
		},
	}
}
