// Package jobs tracks the single active batch behind the HTTP API and the
// Kafka worker, buffers its events and fans them out to sinks.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/service/batch"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// ErrNoRunningJob is returned when cancel is requested for idle state.
var ErrNoRunningJob = errors.New("no running job")

// State is the lifecycle state of the tracked job.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCanceled  State = "canceled"
)

// Status is a snapshot of the tracked job.
type Status struct {
	JobID      uuid.UUID              `json:"jobId,omitempty"`
	State      State                  `json:"state"`
	Total      int                    `json:"total"`
	Finished   int                    `json:"finished"`
	Failed     int                    `json:"failed"`
	StartedAt  time.Time              `json:"startedAt,omitempty"`
	Last       *model.ProgressEvent   `json:"last,omitempty"`
	Completion *model.CompletionEvent `json:"completion,omitempty"`
}

// runner executes batches. Canceling the context passed to Run stops the
// batch at the next file boundary.
type runner interface {
	Prepare(job model.Job) (model.Job, error)
	CheckOutput(dir string) error
	Run(ctx context.Context, job model.Job, obs batch.Observer) (model.CompletionEvent, error)
}

// Sink receives every event of every job after it is buffered.
// The Kafka event producer and the run repository are sinks.
type Sink interface {
	Started(ctx context.Context, job model.Job) error
	Progress(ctx context.Context, ev model.ProgressEvent) error
	Completed(ctx context.Context, ev model.CompletionEvent) error
}

// Manager tracks the single allowed active job and its events.
type Manager struct {
	runner runner
	bus    *EventBus
	sinks  []Sink

	mu      sync.RWMutex
	current Status
	cancel  context.CancelFunc // stops the active run, nil otherwise
	wg      sync.WaitGroup
}

// NewManager creates a manager in idle state.
func NewManager(r runner, bus *EventBus, sinks ...Sink) *Manager {
	if bus == nil {
		bus = NewEventBus(0)
	}
	return &Manager{
		runner:  r,
		bus:     bus,
		sinks:   sinks,
		current: Status{State: StateIdle},
	}
}

// Submit validates job, checks its output directory and starts it in the
// background. Rejections are returned immediately and no event is published
// for them. ctx bounds the whole run, so it must outlive the submitting
// request.
func (m *Manager) Submit(ctx context.Context, job model.Job) (uuid.UUID, error) {
	ctx, cancel, job, err := m.begin(ctx, job)
	if err != nil {
		return uuid.Nil, err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if _, err := m.execute(ctx, cancel, job); err != nil {
			zlog.Logger.Error().Err(err).Str("job_id", job.ID.String()).Msg("batch rejected")
		}
	}()

	return job.ID, nil
}

// Run executes job synchronously with the same bookkeeping as Submit.
func (m *Manager) Run(ctx context.Context, job model.Job) (model.CompletionEvent, error) {
	ctx, cancel, job, err := m.begin(ctx, job)
	if err != nil {
		return model.CompletionEvent{}, err
	}
	return m.execute(ctx, cancel, job)
}

// Wait blocks until every job started with Submit has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// begin validates job and claims the active slot. The returned context is
// canceled by Cancel from this point on.
func (m *Manager) begin(ctx context.Context, job model.Job) (context.Context, context.CancelFunc, model.Job, error) {
	job, err := m.runner.Prepare(job)
	if err != nil {
		return nil, nil, job, err
	}
	if m.IsRunning() {
		return nil, nil, job, ErrJobAlreadyRunning
	}
	if err := m.runner.CheckOutput(job.OutputDir); err != nil {
		return nil, nil, job, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.State == StateRunning {
		return nil, nil, job, ErrJobAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.current = Status{
		JobID:     job.ID,
		State:     StateRunning,
		Total:     len(job.Inputs),
		StartedAt: time.Now().UTC(),
	}

	return ctx, cancel, job, nil
}

func (m *Manager) execute(ctx context.Context, cancel context.CancelFunc, job model.Job) (model.CompletionEvent, error) {
	defer cancel()

	sinkCtx := context.WithoutCancel(ctx)
	for _, s := range m.sinks {
		if err := s.Started(sinkCtx, job); err != nil {
			zlog.Logger.Warn().Err(err).Str("job_id", job.ID.String()).Msg("sink rejected job start")
		}
	}

	done, err := m.runner.Run(ctx, job, func(ev model.Event) {
		m.observe(sinkCtx, job.ID, ev)
	})
	if err != nil {
		m.mu.Lock()
		m.current = Status{State: StateIdle}
		m.cancel = nil
		m.mu.Unlock()
		return done, err
	}

	return done, nil
}

func (m *Manager) observe(ctx context.Context, jobID uuid.UUID, ev model.Event) {
	m.mu.Lock()
	switch {
	case ev.Progress != nil:
		p := *ev.Progress
		m.current.Last = &p
		m.current.Finished++
		if p.Status == model.StatusError {
			m.current.Failed++
		}
	case ev.Completion != nil:
		c := *ev.Completion
		m.current.Completion = &c
		m.current.State = StateCompleted
		m.cancel = nil
		if c.Status == model.Canceled {
			m.current.State = StateCanceled
		}
	}
	m.mu.Unlock()

	m.bus.Publish(Event{JobID: jobID, Progress: ev.Progress, Completion: ev.Completion})

	for _, s := range m.sinks {
		var err error
		switch {
		case ev.Progress != nil:
			err = s.Progress(ctx, *ev.Progress)
		case ev.Completion != nil:
			err = s.Completed(ctx, *ev.Completion)
		}
		if err != nil {
			zlog.Logger.Warn().Err(err).Str("job_id", jobID.String()).Msg("sink rejected event")
		}
	}
}

// Status returns a snapshot of the tracked job.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Events returns the buffered events of job with a sequence greater than
// since. uuid.Nil selects every job.
func (m *Manager) Events(job uuid.UUID, since int64) []Event {
	return m.bus.Since(job, since)
}

// IsRunning reports whether a job is active.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.State == StateRunning
}

// Cancel asks the active job to stop at the next file boundary. A job
// canceled before its first file completes with every file skipped.
func (m *Manager) Cancel() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current.State != StateRunning || m.cancel == nil {
		return ErrNoRunningJob
	}
	m.cancel()
	return nil
}
