// Package batch runs photo batches: it validates a job, transcodes every
// file in order, rewrites its metadata, writes the result and reports
// progress.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/catalog"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/fake"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/metadata"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/processor"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/storage/file"
)

// ErrRunning is returned when a run is started while another is active.
var ErrRunning = errors.New("a batch is already running")

// outputStorage defines the interface for the output directory of a run.
type outputStorage interface {
	Prepare() error
	Path(filename string) string
	Save(filename string, data []byte) (string, error)
	Load(path string) ([]byte, error)
}

// mirror defines the interface for an optional remote copy of every output.
type mirror interface {
	Mirror(ctx context.Context, prefix, filename string, data []byte) (string, error)
}

// Observer receives the events of a run in order. It is called from the
// run's control loop and must not block for long.
type Observer func(model.Event)

// Option configures a Service.
type Option func(*Service)

// WithRand sets the random source used for drift and fake metadata.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = &lockedRand{r: rng} }
}

// WithClock sets the clock used for timestamps and date stamping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithPerFileTimeout bounds the work on a single file. Zero disables it.
func WithPerFileTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithMirror uploads every written output to m.
func WithMirror(m mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithSoftware sets the identifier written by the software tag.
func WithSoftware(name string) Option {
	return func(s *Service) { s.software = name }
}

// WithWindow sets the number of recent files the throughput estimate follows.
func WithWindow(n int) Option {
	return func(s *Service) { s.window = n }
}

// withStorage replaces the output storage constructor.
func withStorage(f func(dir string) outputStorage) Option {
	return func(s *Service) { s.storage = f }
}

// Service runs batches one at a time.
type Service struct {
	rng      *lockedRand
	now      func() time.Time
	log      zerolog.Logger
	timeout  time.Duration
	mirror   mirror
	software string
	window   int
	storage  func(dir string) outputStorage

	mu     sync.Mutex
	active *runState
}

// runState is the state of one run. A new one is created for every run, so
// nothing carries over between runs.
type runState struct {
	canceled atomic.Bool
}

// NewService creates a new Service.
func NewService(opts ...Option) *Service {
	s := &Service{
		rng:      &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
		now:      time.Now,
		log:      zlog.Logger,
		software: metadata.DefaultSoftware,
		window:   DefaultWindow,
		storage:  func(dir string) outputStorage { return file.NewStorage(dir) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cancel stops the active run at the next file boundary. The file being
// processed completes normally. It is a no-op when nothing runs.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.canceled.Store(true)
	}
}

// Running reports whether a run is in progress.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Prepare resolves and validates job without processing anything. The
// returned job is what Run would process.
func (s *Service) Prepare(job model.Job) (model.Job, error) {
	if job.Template != "" {
		var err error
		job, err = catalog.ApplyTemplate(job.Template, job)
		if err != nil {
			return job, &model.ValidationError{Field: "template", Message: err.Error()}
		}
	}

	job = job.Normalize()
	if err := job.Validate(); err != nil {
		return job, err
	}

	job.Format, _ = model.ParseFormat(string(job.Format))
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	return job, nil
}

// CheckOutput creates dir when missing and verifies that files can be
// written to it.
func (s *Service) CheckOutput(dir string) error {
	_, err := s.prepareOutput(dir)
	return err
}

func (s *Service) prepareOutput(dir string) (outputStorage, error) {
	store := s.storage(dir)
	if err := store.Prepare(); err != nil {
		return nil, &model.ValidationError{Field: "outputDir", Message: err.Error()}
	}
	return store, nil
}

// Run processes every file of job in order and reports each finished file
// to obs, followed by exactly one completion event, which is also returned.
//
// An error is returned only when the job is rejected before any file is
// touched. Per-file failures are reported as events and never stop the run.
// Canceling ctx has the same effect as Cancel.
func (s *Service) Run(ctx context.Context, job model.Job, obs Observer) (model.CompletionEvent, error) {
	job, err := s.Prepare(job)
	if err != nil {
		return model.CompletionEvent{}, err
	}

	store, err := s.prepareOutput(job.OutputDir)
	if err != nil {
		return model.CompletionEvent{}, err
	}

	st := &runState{}
	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return model.CompletionEvent{}, ErrRunning
	}
	s.active = st
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
	}()

	if obs == nil {
		obs = func(model.Event) {}
	}

	return s.run(ctx, job, store, st, obs), nil
}

// Stream starts Run in the background and returns its events. The channel
// is closed after the completion event.
func (s *Service) Stream(ctx context.Context, job model.Job) (<-chan model.Event, error) {
	job, err := s.Prepare(job)
	if err != nil {
		return nil, err
	}

	events := make(chan model.Event, 16)
	started := make(chan error, 1)

	go func() {
		defer close(events)

		first := true
		_, err := s.Run(ctx, job, func(ev model.Event) {
			if first {
				first = false
				started <- nil
			}
			events <- ev
		})
		if first {
			started <- err
		}
	}()

	if err := <-started; err != nil {
		return nil, err
	}

	return events, nil
}

func (s *Service) run(ctx context.Context, job model.Job, store outputStorage, st *runState, obs Observer) model.CompletionEvent {
	batchID := uuid.New()
	total := len(job.Inputs)

	var source *fake.Source
	if job.Meta.Fake.Enabled {
		source = fake.NewGenerator(s.rng).NewSource(job.Meta.Fake)
	}

	w := &worker{
		proc: processor.New(s.rng),
		transformer: metadata.NewTransformer(metadata.TransformerConfig{
			Policy:   job.Meta,
			Fake:     source,
			BatchID:  batchID,
			Software: s.software,
			Now:      s.now,
		}),
		store:  store,
		format: job.Format,
		log:    s.log,
	}
	opts := processor.Options{
		Format:      job.Format,
		Quality:     job.Quality,
		ResizeMaxW:  job.ResizeMaxW,
		ColorDrift:  job.ColorDrift,
		ResizeDrift: job.ResizeDrift,
		Watermark:   job.Watermark,
	}

	tasks := make([]model.FileTask, total)
	for i, in := range job.Inputs {
		tasks[i] = model.FileTask{Index: i, Source: in, Status: model.TaskQueued}
	}

	s.log.Info().
		Str("job_id", job.ID.String()).
		Int("files", total).
		Str("format", string(job.Format)).
		Str("output_dir", job.OutputDir).
		Msg("batch started")

	done := model.CompletionEvent{JobID: job.ID, Status: model.Completed, Total: total, StartedAt: s.now()}
	m := newMeter(s.window)

	for i := range tasks {
		if st.canceled.Load() || ctx.Err() != nil {
			done.Status = model.Canceled
			for j := i; j < total; j++ {
				tasks[j].Status = model.TaskSkipped
			}
			done.Skipped = total - i
			break
		}

		task := &tasks[i]
		task.Status = model.TaskProcessing
		task.StartedAt = s.now()

		plan := w.proc.Plan(opts)
		name := OutputName(job.Naming, task.Source, i, job.Format)
		task.Output = store.Path(name)

		data, err := s.process(ctx, w, task, plan)
		if err == nil {
			err = s.write(ctx, job, store, task, name, data)
		}

		task.FinishedAt = s.now()
		elapsed := task.FinishedAt.Sub(task.StartedAt)
		m.observe(task.SourceSize, elapsed)

		ev := model.ProgressEvent{
			JobID:     job.ID,
			Index:     i,
			Total:     total,
			File:      task.Source,
			BytesIn:   task.SourceSize,
			ElapsedMs: task.FinishedAt.Sub(done.StartedAt).Milliseconds(),
			SpeedBps:  m.bps(),
			EtaMs:     m.eta(total - i - 1).Milliseconds(),
			Percent:   float64(i+1) / float64(total) * 100,
		}

		done.Processed++
		done.BytesIn += task.SourceSize

		if err != nil {
			fe := model.Fail(model.ErrEncodeFailure, task.Source, err)
			task.Status = model.TaskFailed
			task.Err = fe
			done.Failed++

			ev.Status = model.StatusError
			ev.Error = err.Error()
			ev.ErrorKind = fe.Kind

			s.log.Warn().
				Str("job_id", job.ID.String()).
				Str("file", task.Source).
				Str("kind", string(fe.Kind)).
				Err(err).
				Msg("file failed")
		} else {
			task.Status = model.TaskDone
			done.Succeeded++
			done.BytesOut += task.OutputSize

			ev.Status = model.StatusOK
			ev.OutPath = task.Output
			ev.BytesOut = task.OutputSize

			s.log.Debug().
				Str("job_id", job.ID.String()).
				Str("file", task.Source).
				Str("out", task.Output).
				Dur("took", elapsed).
				Msg("file processed")
		}

		obs(model.Event{Progress: &ev})
	}

	done.FinishedAt = s.now()
	dur := done.FinishedAt.Sub(done.StartedAt)
	done.DurationMs = dur.Milliseconds()
	if secs := dur.Seconds(); secs > 0 {
		done.AvgBps = float64(done.BytesIn) / secs
	}

	s.log.Info().
		Str("job_id", job.ID.String()).
		Str("status", string(done.Status)).
		Int("succeeded", done.Succeeded).
		Int("failed", done.Failed).
		Int("skipped", done.Skipped).
		Dur("took", dur).
		Msg("batch finished")

	obs(model.Event{Completion: &done})

	return done
}

// process loads and transcodes one file, then rewrites its metadata. With
// a per-file timeout the transcoding runs in its own goroutine; on expiry
// the file fails and whatever the goroutine produces later is discarded.
// Metadata is always rewritten on the calling goroutine.
func (s *Service) process(ctx context.Context, w *worker, task *model.FileTask, plan processor.Plan) ([]byte, error) {
	src, err := w.store.Load(task.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecodeFailure, err)
	}
	task.SourceSize = int64(len(src))

	res, err := s.transcode(ctx, w, src, plan)
	if err != nil {
		return nil, err
	}

	return w.rewrite(src, res.Data, task.Index)
}

func (s *Service) transcode(ctx context.Context, w *worker, src []byte, plan processor.Plan) (processor.Result, error) {
	// A started file always runs to its end.
	workCtx := context.WithoutCancel(ctx)

	if s.timeout <= 0 {
		return w.proc.Transcode(workCtx, src, plan)
	}

	workCtx, cancel := context.WithTimeout(workCtx, s.timeout)
	defer cancel()

	type outcome struct {
		res processor.Result
		err error
	}
	result := make(chan outcome, 1)
	go func() {
		res, err := w.proc.Transcode(workCtx, src, plan)
		result <- outcome{res: res, err: err}
	}()

	select {
	case o := <-result:
		if errors.Is(o.err, context.DeadlineExceeded) {
			return processor.Result{}, fmt.Errorf("%w: no result after %s", model.ErrTimeout, s.timeout)
		}
		return o.res, o.err
	case <-workCtx.Done():
		return processor.Result{}, fmt.Errorf("%w: no result after %s", model.ErrTimeout, s.timeout)
	}
}

func (s *Service) write(ctx context.Context, job model.Job, store outputStorage, task *model.FileTask, name string, data []byte) error {
	path, err := store.Save(name, data)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrOutputWriteFailure, err)
	}
	task.Output = path
	task.OutputSize = int64(len(data))

	if s.mirror != nil {
		key, err := s.mirror.Mirror(context.WithoutCancel(ctx), job.ID.String(), name, data)
		if err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("failed to mirror output")
		} else {
			s.log.Debug().Str("object", key).Msg("output mirrored")
		}
	}

	return nil
}

// worker holds the per-run collaborators used for every file.
type worker struct {
	proc        *processor.Processor
	transformer *metadata.Transformer
	store       outputStorage
	format      model.Format
	log         zerolog.Logger
}

// rewrite carries the metadata of src over to the encoded image, applying
// the job's metadata policy.
func (w *worker) rewrite(src, encoded []byte, index int) ([]byte, error) {
	// Read returns the blocks that did decode next to the error.
	doc, err := metadata.Read(src)
	if err != nil {
		w.log.Warn().Err(err).Int("index", index).Msg("source metadata partly unreadable")
	}
	if doc == nil {
		doc = metadata.NewDocument()
	}

	doc = w.transformer.Apply(doc, index)

	return metadata.Write(w.format, encoded, doc)
}

// lockedRand makes one random source safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
