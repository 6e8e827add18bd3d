package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

// JobResult is what a finished pipeline run records on its job row.
type JobResult struct {
	DocumentID    uuid.UUID
	Method        string
	OCRText       string
	Confidence    float64
	NeedsReview   bool
	ExtractedJSON []byte
}

type ExtractJobRepository interface {
	Start(ctx context.Context, profileID uuid.UUID, format string, status constants.JobStatus) (*entity.ExtractJob, error)
	SetStatus(ctx context.Context, jobID uuid.UUID, status constants.JobStatus) error
	FinishSuccess(ctx context.Context, jobID uuid.UUID, res JobResult) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
}

type extractJobRepo struct {
	c   conn
	log *slog.Logger
}

// extractJobRow is the persisted shape of an extract job.
type extractJobRow struct {
	ID            uuid.UUID          `db:"id"`
	DocumentID    uuid.NullUUID      `db:"document_id"`
	ProfileID     uuid.UUID          `db:"profile_id"`
	Format        string             `db:"format"`
	Method        string             `db:"method"`
	StartedAt     time.Time          `db:"started_at"`
	FinishedAt    sql.NullTime       `db:"finished_at"`
	Status        string             `db:"status"`
	ErrorMessage  sql.NullString     `db:"error_message"`
	Confidence    sql.NullFloat64    `db:"confidence"`
	NeedsReview   bool               `db:"needs_review"`
	OCRText       sql.NullString     `db:"ocr_text"`
	ExtractedJSON types.NullJSONText `db:"extracted_json"`
}

func (r extractJobRow) toEntity() *entity.ExtractJob {
	job := &entity.ExtractJob{
		ID:           r.ID,
		DocumentID:   uuidPtr(r.DocumentID),
		ProfileID:    r.ProfileID,
		Format:       r.Format,
		Method:       r.Method,
		StartedAt:    r.StartedAt,
		FinishedAt:   timePtr(r.FinishedAt),
		Status:       constants.JobStatus(r.Status),
		ErrorMessage: strPtr(r.ErrorMessage),
		NeedsReview:  r.NeedsReview,
		OCRText:      strPtr(r.OCRText),
	}
	if r.Confidence.Valid {
		c := r.Confidence.Float64
		job.Confidence = &c
	}
	if r.ExtractedJSON.Valid {
		job.ExtractedJSON = []byte(r.ExtractedJSON.JSONText)
	}
	return job
}

const extractJobColumns = `id, document_id, profile_id, format, method, started_at, finished_at, status,
	error_message, confidence, needs_review, ocr_text, extracted_json`

func (r *extractJobRepo) Start(ctx context.Context, profileID uuid.UUID, format string, status constants.JobStatus) (*entity.ExtractJob, error) {
	row := extractJobRow{
		ID:        uuid.New(),
		ProfileID: profileID,
		Format:    format,
		StartedAt: time.Now().UTC(),
		Status:    string(status),
	}
	_, err := r.c.namedExec(ctx,
		"INSERT INTO extract_jobs (id, profile_id, format, started_at, status) VALUES (:id, :profile_id, :format, :started_at, :status)",
		row)
	if err != nil {
		r.log.Error("extract_job start failed", "profile_id", profileID, "err", err)
		return nil, err
	}
	r.log.Info("extract_job started", "job_id", row.ID, "profile_id", profileID, "format", format)
	return row.toEntity(), nil
}

func (r *extractJobRepo) SetStatus(ctx context.Context, jobID uuid.UUID, status constants.JobStatus) error {
	return r.update(ctx, jobID, "UPDATE extract_jobs SET status = ? WHERE id = ?", string(status), jobID)
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, res JobResult) error {
	var extracted types.NullJSONText
	if len(res.ExtractedJSON) > 0 {
		extracted = types.NullJSONText{JSONText: res.ExtractedJSON, Valid: true}
	}
	err := r.update(ctx, jobID,
		`UPDATE extract_jobs SET document_id = ?, method = ?, ocr_text = ?, confidence = ?, needs_review = ?,
		extracted_json = ?, finished_at = ?, status = ? WHERE id = ?`,
		res.DocumentID, res.Method, nullString(res.OCRText), res.Confidence, res.NeedsReview,
		extracted, time.Now().UTC(), string(constants.JobStatusMapped), jobID)
	if err != nil {
		r.log.Error("extract_job finish(OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (MAPPED)", "job_id", jobID, "method", res.Method, "needs_review", res.NeedsReview)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	err := r.update(ctx, jobID,
		"UPDATE extract_jobs SET finished_at = ?, status = ?, error_message = ? WHERE id = ?",
		time.Now().UTC(), string(constants.JobStatusFailed), message, jobID)
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) update(ctx context.Context, jobID uuid.UUID, q string, args ...any) error {
	res, err := r.c.exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("extract job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	var row extractJobRow
	err := r.c.get(ctx, &row, "SELECT "+extractJobColumns+" FROM extract_jobs WHERE id = ?", jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("extract job %s: %w", jobID, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}
