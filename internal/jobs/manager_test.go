package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/service/batch"
)

// stubRunner emits one ok event per input until its context is canceled.
// With gate set it waits for the gate before the first file.
type stubRunner struct {
	gate      chan struct{}
	outputErr error
}

func newStubRunner(gated bool) *stubRunner {
	r := &stubRunner{}
	if gated {
		r.gate = make(chan struct{})
	}
	return r
}

func (r *stubRunner) Prepare(job model.Job) (model.Job, error) {
	if len(job.Inputs) == 0 {
		return job, &model.ValidationError{Field: "files", Message: "required"}
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return job, nil
}

func (r *stubRunner) CheckOutput(string) error {
	return r.outputErr
}

func (r *stubRunner) Run(ctx context.Context, job model.Job, obs batch.Observer) (model.CompletionEvent, error) {
	if r.gate != nil {
		<-r.gate
	}

	done := model.CompletionEvent{JobID: job.ID, Status: model.Completed, Total: len(job.Inputs)}
	for i, in := range job.Inputs {
		if ctx.Err() != nil {
			done.Status = model.Canceled
			done.Skipped = len(job.Inputs) - i
			obs(model.Event{Completion: &done})
			return done, nil
		}
		obs(model.Event{Progress: &model.ProgressEvent{JobID: job.ID, Index: i, Total: len(job.Inputs), File: in, Status: model.StatusOK}})
		done.Succeeded++
	}
	obs(model.Event{Completion: &done})
	return done, nil
}

type recordingSink struct {
	mu        sync.Mutex
	started   int
	progress  int
	completed int
}

func (s *recordingSink) Started(context.Context, model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	return nil
}

func (s *recordingSink) Progress(context.Context, model.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress++
	return nil
}

func (s *recordingSink) Completed(context.Context, model.CompletionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	return errors.New("sink errors are logged, not fatal")
}

func TestSubmitPublishesEvents(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(newStubRunner(false), NewEventBus(0), sink)

	id, err := m.Submit(context.Background(), model.Job{Inputs: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	m.Wait()

	st := m.Status()
	if st.JobID != id || st.State != StateCompleted || st.Finished != 2 {
		t.Fatalf("status = %+v", st)
	}

	events := m.Events(id, 0)
	if len(events) != 3 || events[2].Completion == nil {
		t.Fatalf("events = %+v", events)
	}
	if sink.started != 1 || sink.progress != 2 || sink.completed != 1 {
		t.Fatalf("sink = %+v", sink)
	}
}

func TestSubmitRejectsInvalidJob(t *testing.T) {
	m := NewManager(newStubRunner(false), nil)

	_, err := m.Submit(context.Background(), model.Job{})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if m.IsRunning() || len(m.Events(uuid.Nil, 0)) != 0 {
		t.Fatal("rejected job left state behind")
	}
}

func TestSingleActiveJobAndCancel(t *testing.T) {
	r := newStubRunner(true)
	m := NewManager(r, nil)

	if err := m.Cancel(); !errors.Is(err, ErrNoRunningJob) {
		t.Fatalf("cancel while idle: %v", err)
	}

	if _, err := m.Submit(context.Background(), model.Job{Inputs: []string{"a", "b"}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := m.Submit(context.Background(), model.Job{Inputs: []string{"c"}}); !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatalf("second submit: %v", err)
	}

	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	close(r.gate)
	m.Wait()

	if st := m.Status(); st.State != StateCanceled {
		t.Fatalf("state = %s", st.State)
	}

	// A finished job frees the slot.
	if _, err := m.Run(context.Background(), model.Job{Inputs: []string{"d"}}); err != nil {
		t.Fatalf("run after cancel: %v", err)
	}
}

func TestCancelBeforeFirstFile(t *testing.T) {
	r := newStubRunner(true)
	m := NewManager(r, nil)

	id, err := m.Submit(context.Background(), model.Job{Inputs: []string{"a", "b", "c"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	close(r.gate)
	m.Wait()

	st := m.Status()
	if st.State != StateCanceled || st.Finished != 0 || st.Completion.Skipped != 3 {
		t.Fatalf("status = %+v", st)
	}
	if events := m.Events(id, 0); len(events) != 1 || events[0].Completion == nil {
		t.Fatalf("events = %+v", events)
	}
	if err := m.Cancel(); !errors.Is(err, ErrNoRunningJob) {
		t.Fatalf("cancel after completion: %v", err)
	}
}

func writeJPEGs(t *testing.T, dir string, n int) []string {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 64, 48)), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%02d.jpg", i))
		if err := os.WriteFile(paths[i], buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func TestCancelRightAfterSubmitStopsBatch(t *testing.T) {
	m := NewManager(batch.NewService(batch.WithLogger(zerolog.Nop())), nil)
	files := writeJPEGs(t, t.TempDir(), 20)

	if _, err := m.Submit(context.Background(), model.Job{
		Inputs: files, OutputDir: t.TempDir(), Format: model.FormatPNG,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	m.Wait()

	st := m.Status()
	if st.State != StateCanceled || st.Completion == nil || st.Completion.Skipped == 0 {
		t.Fatalf("status = %+v", st)
	}
	if st.Finished+st.Completion.Skipped != len(files) {
		t.Fatalf("finished %d + skipped %d != %d", st.Finished, st.Completion.Skipped, len(files))
	}
}

func TestSubmitRejectsUnwritableOutput(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	m := NewManager(batch.NewService(batch.WithLogger(zerolog.Nop())), nil, sink)

	_, err := m.Submit(context.Background(), model.Job{
		Inputs: writeJPEGs(t, t.TempDir(), 1), OutputDir: filepath.Join(blocker, "out"),
	})
	var verr *model.ValidationError
	if !errors.As(err, &verr) || verr.Field != "outputDir" {
		t.Fatalf("err = %v, want outputDir ValidationError", err)
	}
	m.Wait()

	if m.IsRunning() || len(m.Events(uuid.Nil, 0)) != 0 || sink.started != 0 {
		t.Fatalf("rejected job left state behind: %+v, sink %+v", m.Status(), sink)
	}
}

func TestSubmitReportsOutputCheckBeforeClaimingSlot(t *testing.T) {
	r := newStubRunner(false)
	r.outputErr = &model.ValidationError{Field: "outputDir", Message: "read-only"}
	m := NewManager(r, nil)

	if _, err := m.Submit(context.Background(), model.Job{Inputs: []string{"a"}}); err == nil {
		t.Fatal("expected output check to fail")
	}
	r.outputErr = nil
	if _, err := m.Run(context.Background(), model.Job{Inputs: []string{"a"}}); err != nil {
		t.Fatalf("slot not free after rejected submit: %v", err)
	}
}
