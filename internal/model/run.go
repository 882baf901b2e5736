package model

import (
	"time"

	"github.com/google/uuid"
)

// RunRecord is the stored summary of a past or running job.
type RunRecord struct {
	ID         uuid.UUID       `json:"id"`
	Status     string          `json:"status"` // running, completed or canceled
	Format     Format          `json:"format"`
	OutputDir  string          `json:"outputDir"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Skipped    int             `json:"skipped"`
	BytesIn    int64           `json:"bytesIn"`
	BytesOut   int64           `json:"bytesOut"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
	Files      []ProgressEvent `json:"files,omitempty"`
}
