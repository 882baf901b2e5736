package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/config"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

// Message types published to the event topic.
const (
	TypeStarted   = "started"
	TypeProgress  = "progress"
	TypeCompleted = "completed"
)

// Message is the envelope of every event published for a job.
type Message struct {
	Type       string                 `json:"type"`
	JobID      uuid.UUID              `json:"jobId"`
	Files      int                    `json:"files,omitempty"`
	Format     model.Format           `json:"format,omitempty"`
	Progress   *model.ProgressEvent   `json:"progress,omitempty"`
	Completion *model.CompletionEvent `json:"completion,omitempty"`
}

// sender is the part of the wbf producer used for publishing.
type sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

// Producer publishes job events to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	send     sender
	strategy retry.Strategy
}

// New creates a new Producer writing to the event topic.
// - cfg: Kafka configuration struct
// - s: retry strategy
func New(cfg *config.Kafka, s retry.Strategy) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.EventTopic)

	return &Producer{
		Client:   client,
		send:     client,
		strategy: s,
	}
}

// Started publishes the start of job.
func (p *Producer) Started(ctx context.Context, job model.Job) error {
	return p.produce(ctx, Message{Type: TypeStarted, JobID: job.ID, Files: len(job.Inputs), Format: job.Format})
}

// Progress publishes one finished file.
func (p *Producer) Progress(ctx context.Context, ev model.ProgressEvent) error {
	return p.produce(ctx, Message{Type: TypeProgress, JobID: ev.JobID, Progress: &ev})
}

// Completed publishes the end of a job.
func (p *Producer) Completed(ctx context.Context, ev model.CompletionEvent) error {
	return p.produce(ctx, Message{Type: TypeCompleted, JobID: ev.JobID, Completion: &ev})
}

// produce serializes msg to JSON and sends it keyed by job id, so the
// events of one job stay ordered within a partition.
func (p *Producer) produce(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", msg.Type, err)
	}

	key := []byte(msg.JobID.String())

	if err = p.send.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		return fmt.Errorf("failed to send %s event: %w", msg.Type, err)
	}

	return nil
}
