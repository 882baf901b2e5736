package job

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/api/respond"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/jobs"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/repository/run"
	"github.com/YALOKGARua/PhotoUnikalizer/internal/scanner"
)

// manager defines the job registry operations used by the handlers.
type manager interface {
	Submit(ctx context.Context, job model.Job) (uuid.UUID, error)
	Status() jobs.Status
	Events(job uuid.UUID, since int64) []jobs.Event
	Cancel() error
}

// history looks up runs that are no longer tracked by the manager.
type history interface {
	GetRun(ctx context.Context, id uuid.UUID) (model.RunRecord, error)
}

// Handler provides HTTP handlers for batch jobs.
type Handler struct {
	manager manager
	history history
}

// NewHandler creates a new Handler with the given manager. h may be nil
// when no run history is kept.
func NewHandler(m manager, h history) *Handler {
	return &Handler{manager: m, history: h}
}

// SubmitResponse is returned for an accepted job.
type SubmitResponse struct {
	ID    uuid.UUID `json:"id"`
	Files int       `json:"files"`
}

// EventsResponse is one page of sequenced events.
type EventsResponse struct {
	Events  []jobs.Event `json:"events"`
	LastSeq int64        `json:"lastSeq"`
}

// Submit decodes a job, expands its directories and starts it in the
// background. The run outlives the request.
func (h *Handler) Submit(c *ginext.Context) {
	var job model.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to decode job")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid job: %v", err))
		return
	}

	// Replace directories with the images they contain.
	inputs, err := scanner.Expand(job.Inputs)
	if err != nil {
		respond.Invalid(c, "files", err)
		return
	}
	job.Inputs = inputs

	id, err := h.manager.Submit(context.WithoutCancel(c.Request.Context()), job)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Invalid(c, verr.Field, err)
		case errors.Is(err, jobs.ErrJobAlreadyRunning):
			respond.Fail(c, http.StatusConflict, err)
		default:
			zlog.Logger.Err(err).Msg("failed to submit job")
			respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to submit job: %v", err))
		}
		return
	}

	zlog.Logger.Info().Str("job_id", id.String()).Int("files", len(job.Inputs)).Msg("job submitted")

	respond.Accepted(c, SubmitResponse{ID: id, Files: len(job.Inputs)})
}

// Status returns the state and summary of a job. Jobs replaced by a newer
// one are served from the run history when it is kept.
func (h *Handler) Status(c *ginext.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	if st := h.manager.Status(); st.JobID == id {
		respond.OK(c, st)
		return
	}

	if h.history == nil {
		respond.Fail(c, http.StatusNotFound, fmt.Errorf("job not found"))
		return
	}

	rec, err := h.history.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound) {
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("job not found"))
			return
		}
		zlog.Logger.Err(err).Str("job_id", id.String()).Msg("failed to get run")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get run: %v", err))
		return
	}

	respond.OK(c, rec)
}

// Events returns the buffered events of a job with a sequence greater
// than the since query parameter.
func (h *Handler) Events(c *ginext.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	var since int64
	if s := c.Query("since"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			respond.Invalid(c, "since", fmt.Errorf("invalid since: %q", s))
			return
		}
		since = n
	}

	res := EventsResponse{Events: h.manager.Events(id, since), LastSeq: since}
	if n := len(res.Events); n > 0 {
		res.LastSeq = res.Events[n-1].Seq
	} else {
		res.Events = []jobs.Event{}
	}

	if len(res.Events) == 0 && h.manager.Status().JobID != id {
		respond.Fail(c, http.StatusNotFound, fmt.Errorf("job not found"))
		return
	}

	respond.OK(c, res)
}

// Cancel asks the running job to stop at the next file boundary.
func (h *Handler) Cancel(c *ginext.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	if h.manager.Status().JobID != id {
		respond.Fail(c, http.StatusNotFound, fmt.Errorf("job not found"))
		return
	}

	if err := h.manager.Cancel(); err != nil {
		if errors.Is(err, jobs.ErrNoRunningJob) {
			respond.Fail(c, http.StatusConflict, err)
			return
		}
		respond.Fail(c, http.StatusInternalServerError, err)
		return
	}

	zlog.Logger.Info().Str("job_id", id.String()).Msg("cancel requested")

	respond.Accepted(c, map[string]interface{}{"id": id})
}

func (h *Handler) jobID(c *ginext.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return uuid.Nil, false
	}
	return id, true
}
