package job

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/jobs"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

type fakeRunner struct {
	got model.Job
	err error
}

func (r *fakeRunner) Run(_ context.Context, job model.Job) (model.CompletionEvent, error) {
	r.got = job
	return model.CompletionEvent{JobID: job.ID, Status: model.Completed}, r.err
}

func TestHandleRunsJob(t *testing.T) {
	r := &fakeRunner{}
	h := NewRequestedHandler(r)

	err := h.Handle(context.Background(), kafka.Message{Value: []byte(`{"files":["a.jpg"],"outputDir":"out","format":"png","quality":70}`)})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if r.got.Format != model.FormatPNG || r.got.Quality != 70 || !filepath.IsAbs(r.got.Inputs[0]) {
		t.Fatalf("job = %+v", r.got)
	}
}

func TestHandleErrors(t *testing.T) {
	ctx := context.Background()

	if err := NewRequestedHandler(&fakeRunner{}).Handle(ctx, kafka.Message{Value: []byte("{")}); err == nil {
		t.Error("malformed message accepted")
	}

	invalid := &fakeRunner{err: &model.ValidationError{Field: "files", Message: "required"}}
	if err := NewRequestedHandler(invalid).Handle(ctx, kafka.Message{Value: []byte(`{}`)}); err != nil {
		t.Errorf("invalid job should be acknowledged, got %v", err)
	}

	busy := &fakeRunner{err: jobs.ErrJobAlreadyRunning}
	if err := NewRequestedHandler(busy).Handle(ctx, kafka.Message{Value: []byte(`{}`)}); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Errorf("err = %v", err)
	}
}
