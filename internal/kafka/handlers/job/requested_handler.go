package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/scanner"
)

type runner interface {
	Run(ctx context.Context, job model.Job) (model.CompletionEvent, error)
}

// RequestedHandler runs the job carried by a job request message.
type RequestedHandler struct {
	runner runner
}

func NewRequestedHandler(r runner) *RequestedHandler {
	return &RequestedHandler{runner: r}
}

// Handle decodes msg into a job and runs it to completion. A job that fails
// validation is logged and acknowledged, since redelivery cannot fix it.
func (h *RequestedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var job model.Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}

	inputs, err := scanner.Expand(job.Inputs)
	if err != nil {
		return fmt.Errorf("expand inputs: %w", err)
	}
	job.Inputs = inputs

	done, err := h.runner.Run(ctx, job)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			zlog.Logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("job request rejected")
			return nil
		}
		return fmt.Errorf("run job: %w", err)
	}

	zlog.Logger.Info().
		Str("job_id", done.JobID.String()).
		Str("status", string(done.Status)).
		Int("succeeded", done.Succeeded).
		Int("failed", done.Failed).
		Msg("job request completed")

	return nil
}
