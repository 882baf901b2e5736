package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a FileTask.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskDone       TaskStatus = "done"
	TaskFailed     TaskStatus = "failed"
	TaskSkipped    TaskStatus = "skipped"
)

// FileTask tracks one input path through a run.
type FileTask struct {
	Index      int
	Source     string
	Output     string
	SourceSize int64
	OutputSize int64
	StartedAt  time.Time
	FinishedAt time.Time
	Status     TaskStatus
	Err        error
}

// EventStatus is the outcome reported for a finished file.
type EventStatus string

const (
	StatusOK    EventStatus = "ok"
	StatusError EventStatus = "error"
)

// ProgressEvent is emitted once per file, in ascending index order.
type ProgressEvent struct {
	JobID     uuid.UUID   `json:"jobId"`
	Index     int         `json:"index"` // 0-based
	Total     int         `json:"total"`
	File      string      `json:"file"`
	Status    EventStatus `json:"status"`
	OutPath   string      `json:"outPath,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind ErrorKind   `json:"errorKind,omitempty"`
	BytesIn   int64       `json:"bytesIn"`
	BytesOut  int64       `json:"bytesOut,omitempty"`
	ElapsedMs int64       `json:"elapsedMs"`
	SpeedBps  float64     `json:"speedBps"`
	EtaMs     int64       `json:"etaMs"`
	Percent   float64     `json:"percent"`
}

// CompletionStatus tells how a run ended.
type CompletionStatus string

const (
	Completed CompletionStatus = "completed"
	Canceled  CompletionStatus = "canceled"
)

// CompletionEvent is emitted exactly once at the end of every run.
type CompletionEvent struct {
	JobID      uuid.UUID        `json:"jobId"`
	Status     CompletionStatus `json:"status"`
	Total      int              `json:"total"`
	Processed  int              `json:"processed"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Skipped    int              `json:"skipped"`
	BytesIn    int64            `json:"bytesIn"`
	BytesOut   int64            `json:"bytesOut"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	DurationMs int64            `json:"durationMs"`
	AvgBps     float64          `json:"avgBps"`
}

// Event is one element of a run's event stream: either a progress event or
// the final completion event.
type Event struct {
	Progress   *ProgressEvent   `json:"progress,omitempty"`
	Completion *CompletionEvent `json:"completion,omitempty"`
}
