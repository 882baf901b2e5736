package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/config"
)

const fetchBackoff = 500 * time.Millisecond

// jobHandler defines the interface for handling job request messages.
type jobHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// client is the part of the wbf consumer used by Consume.
type client interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// Consumer reads job requests from the job topic and hands them to the
// handler one at a time.
type Consumer struct {
	Client     *wbfkafka.Consumer
	client     client
	jobHandler jobHandler
	topic      string
	strategy   retry.Strategy
}

// New creates a new Consumer.
// - cfg: Kafka configuration struct
// - s: retry strategy
// - jh: handler for processing job request messages
func New(cfg *config.Kafka, s retry.Strategy, jh jobHandler) *Consumer {
	c := wbfkafka.NewConsumer(cfg.Brokers, cfg.JobTopic, cfg.GroupID)

	return &Consumer{
		Client:     c,
		client:     c,
		jobHandler: jh,
		topic:      cfg.JobTopic,
		strategy:   s,
	}
}

// Consume continuously fetches messages from Kafka, processes them using the handler,
// and commits offsets after successful processing. It stops gracefully on context cancellation.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.topic).
		Msg("starting consumer")

	for {
		// Exit if context is canceled (graceful shutdown).
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
			return
		}

		// Fetch a message from Kafka with retries.
		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.client.Fetch(ctx)
			return fetchErr
		}, c.strategy)

		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			zlog.Logger.Err(err).Msg("failed to fetch message")
			select {
			case <-ctx.Done():
			case <-time.After(fetchBackoff):
			}
			continue
		}

		// Run the requested job.
		if err := c.jobHandler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Int64("offset", msg.Offset).
				Msg("failed to process job request")
			continue
		}

		// Commit the message with retries.
		err = retry.Do(func() error {
			return c.client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
			continue
		}

		zlog.Logger.Info().
			Int64("offset", msg.Offset).
			Msg("job request handled")
	}
}
