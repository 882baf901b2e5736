package main

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/config"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/infra/kafka/producer"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/jobs"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/repository/run"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/service/batch"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/storage/object"
)

// app holds the collaborators shared by the run, serve and worker commands.
type app struct {
	cfg      *config.Config
	strategy retry.Strategy
	service  *batch.Service
	manager  *jobs.Manager
	repo     *run.Repository
	producer *producer.Producer

	db *dbpg.DB
}

// newApp wires the batch service and the optional backends that cfg enables.
// extra sinks receive the job events after the configured ones.
func newApp(ctx context.Context, cfg *config.Config, withProducer bool, extra ...jobs.Sink) (*app, error) {
	a := &app{
		cfg: cfg,
		// Retry strategy for Kafka, MinIO and other external calls.
		strategy: retry.Strategy{
			Attempts: cfg.Retry.Attempts,
			Delay:    cfg.Retry.Delay,
			Backoff:  cfg.Retry.Backoff,
		},
	}

	opts := []batch.Option{
		batch.WithLogger(zlog.Logger),
		batch.WithPerFileTimeout(cfg.Batch.PerFileTimeout),
		batch.WithWindow(cfg.Batch.Window),
	}
	if cfg.Batch.Software != "" {
		opts = append(opts, batch.WithSoftware(cfg.Batch.Software))
	}

	// Mirror outputs into object storage (MinIO).
	if cfg.Storage.Enabled {
		st, err := object.NewStorage(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey,
			cfg.Storage.BucketName, cfg.Storage.UseSSL, a.strategy)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		opts = append(opts, batch.WithMirror(st))
	}

	a.service = batch.NewService(opts...)

	var sinks []jobs.Sink

	// Connect to PostgreSQL (master and slaves) for the run history.
	if cfg.Database.Enabled() {
		dbOpts := &dbpg.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}

		slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
		for _, s := range cfg.Database.Slaves {
			slaveDSNs = append(slaveDSNs, s.DSN())
		}

		db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, dbOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		a.repo = run.NewRepository(db)
		sinks = append(sinks, a.repo)
	}

	// Publish job events to Kafka.
	if withProducer && cfg.Kafka.Enabled() {
		a.producer = producer.New(&cfg.Kafka, a.strategy)
		sinks = append(sinks, a.producer)
	}

	sinks = append(sinks, extra...)
	a.manager = jobs.NewManager(a.service, jobs.NewEventBus(cfg.Batch.EventBuffer), sinks...)

	return a, nil
}

// Close releases the database and Kafka clients.
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Master.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close master DB")
		}
		for i, s := range a.db.Slaves {
			if err := s.Close(); err != nil {
				zlog.Logger.Error().Err(err).Int("slave", i).Msg("failed to close slave DB")
			}
		}
	}

	if a.producer != nil {
		if err := a.producer.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
}
