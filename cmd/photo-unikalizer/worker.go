package main

import (
	"errors"
	"sync"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/config"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/infra/kafka/consumer"
	jobmsg "github.com/YALOKGARua/PhotoUnikalizer/internal/kafka/handlers/job"
)

func newWorkerCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run jobs requested on the Kafka job topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Kafka.Enabled() {
				return errors.New("worker needs kafka.brokers to be configured")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			// Kafka consumer for job requests; every job runs through the manager.
			c := consumer.New(&cfg.Kafka, a.strategy, jobmsg.NewRequestedHandler(a.manager))

			var wg sync.WaitGroup
			wg.Add(1)
			go c.Consume(ctx, &wg)

			// Block until context is canceled (SIGINT/SIGTERM).
			<-ctx.Done()
			zlog.Logger.Info().Msg("context done")

			// Wait for Kafka consumer goroutine to finish.
			wg.Wait()

			if err := c.Client.Close(); err != nil {
				zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
			}

			return nil
		},
	}
}
