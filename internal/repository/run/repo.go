package run

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

var ErrRunNotFound = errors.New("run not found")

const statusRunning = "running"

// Repository records the history of batch runs. It receives events as a
// job sink, so every run started through the job registry is stored.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Started inserts the run row for job.
func (r *Repository) Started(ctx context.Context, job model.Job) error {
	query := `
		INSERT INTO runs (id, status, format, output_dir, total, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(
		ctx, query, job.ID, statusRunning, string(job.Format), job.OutputDir, len(job.Inputs), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("started: failed to insert run: %w", err)
	}

	return nil
}

// Progress stores the outcome of one file.
func (r *Repository) Progress(ctx context.Context, ev model.ProgressEvent) error {
	query := `
		INSERT INTO run_files (run_id, idx, source, out_path, status, error_kind, error, bytes_in, bytes_out, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, idx) DO NOTHING
	`

	_, err := r.db.ExecContext(
		ctx, query, ev.JobID, ev.Index, ev.File, ev.OutPath, string(ev.Status),
		string(ev.ErrorKind), ev.Error, ev.BytesIn, ev.BytesOut, ev.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("progress: failed to insert file result: %w", err)
	}

	return nil
}

// Completed stores the summary of a finished run.
func (r *Repository) Completed(ctx context.Context, ev model.CompletionEvent) error {
	query := `
		UPDATE runs
		SET status = $1, succeeded = $2, failed = $3, skipped = $4,
		    bytes_in = $5, bytes_out = $6, finished_at = $7
		WHERE id = $8
	`

	res, err := r.db.ExecContext(
		ctx, query, string(ev.Status), ev.Succeeded, ev.Failed, ev.Skipped,
		ev.BytesIn, ev.BytesOut, ev.FinishedAt, ev.JobID,
	)
	if err != nil {
		return fmt.Errorf("completed: failed to update run: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrRunNotFound
	}

	return nil
}

// GetRun retrieves a run and its per-file results.
func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (model.RunRecord, error) {
	query := `
		SELECT status, format, output_dir, total, succeeded, failed, skipped,
		       bytes_in, bytes_out, started_at, finished_at
		FROM runs
		WHERE id = $1
	`

	var (
		rec      model.RunRecord
		format   string
		finished sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.Status, &format, &rec.OutputDir, &rec.Total, &rec.Succeeded, &rec.Failed, &rec.Skipped,
		&rec.BytesIn, &rec.BytesOut, &rec.StartedAt, &finished,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RunRecord{}, ErrRunNotFound
		}
		return model.RunRecord{}, fmt.Errorf("get: failed to get run: %w", err)
	}

	rec.ID = id
	rec.Format = model.Format(format)
	if finished.Valid {
		rec.FinishedAt = &finished.Time
	}

	files, err := r.files(ctx, id)
	if err != nil {
		return model.RunRecord{}, err
	}
	rec.Files = files

	return rec, nil
}

func (r *Repository) files(ctx context.Context, id uuid.UUID) ([]model.ProgressEvent, error) {
	query := `
		SELECT idx, source, out_path, status, error_kind, error, bytes_in, bytes_out, elapsed_ms
		FROM run_files
		WHERE run_id = $1
		ORDER BY idx
	`

	rows, err := r.db.Master.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get: failed to list files: %w", err)
	}
	defer rows.Close()

	var files []model.ProgressEvent
	for rows.Next() {
		ev := model.ProgressEvent{JobID: id}
		var status, kind string
		if err := rows.Scan(
			&ev.Index, &ev.File, &ev.OutPath, &status, &kind, &ev.Error, &ev.BytesIn, &ev.BytesOut, &ev.ElapsedMs,
		); err != nil {
			return nil, fmt.Errorf("get: failed to scan file: %w", err)
		}
		ev.Status = model.EventStatus(status)
		ev.ErrorKind = model.ErrorKind(kind)
		files = append(files, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get: failed to read files: %w", err)
	}

	return files, nil
}
