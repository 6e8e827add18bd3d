package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

// PriorityDateRepository keeps the additive priority-date history.
type PriorityDateRepository interface {
	// Append records pd unless the same (profile, date, document type) already
	// exists; it reports whether a row was added.
	Append(ctx context.Context, pd *entity.PriorityDate) (bool, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]entity.PriorityDate, error)
}

type priorityDateRepo struct {
	c      conn
	logger *slog.Logger
}

type priorityDateRow struct {
	ID           uuid.UUID     `db:"id"`
	ProfileID    uuid.UUID     `db:"profile_id"`
	DocumentID   uuid.NullUUID `db:"document_id"`
	Date         time.Time     `db:"date"`
	DocumentType string        `db:"document_type"`
	CreatedAt    time.Time     `db:"created_at"`
}

func (r priorityDateRow) toEntity() entity.PriorityDate {
	return entity.PriorityDate{
		ID:           r.ID,
		ProfileID:    r.ProfileID,
		DocumentID:   uuidPtr(r.DocumentID),
		Date:         civil.DateOf(r.Date).String(),
		DocumentType: constants.DocumentType(r.DocumentType),
		CreatedAt:    r.CreatedAt,
	}
}

func (r *priorityDateRepo) Append(ctx context.Context, pd *entity.PriorityDate) (bool, error) {
	date, err := civil.ParseDate(pd.Date)
	if err != nil || !date.IsValid() {
		return false, fmt.Errorf("priority date %q: %w", pd.Date, common.ErrInvalidInput)
	}
	if pd.ID == uuid.Nil {
		pd.ID = uuid.New()
	}
	if pd.CreatedAt.IsZero() {
		pd.CreatedAt = time.Now().UTC()
	}
	row := priorityDateRow{
		ID:           pd.ID,
		ProfileID:    pd.ProfileID,
		DocumentID:   nullUUID(pd.DocumentID),
		Date:         date.In(time.UTC),
		DocumentType: string(pd.DocumentType),
		CreatedAt:    pd.CreatedAt,
	}
	res, err := r.c.namedExec(ctx,
		`INSERT INTO priority_dates (id, profile_id, document_id, date, document_type, created_at)
		VALUES (:id, :profile_id, :document_id, :date, :document_type, :created_at)
		ON CONFLICT (profile_id, date, document_type) DO NOTHING`, row)
	if err != nil {
		r.logger.Error("failed to append priority date", "profile_id", pd.ProfileID, "date", pd.Date, "error", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *priorityDateRepo) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]entity.PriorityDate, error) {
	var rows []priorityDateRow
	err := r.c.selectAll(ctx, &rows,
		`SELECT id, profile_id, document_id, date, document_type, created_at
		FROM priority_dates WHERE profile_id = ? ORDER BY date, created_at`, profileID)
	if err != nil {
		r.logger.Error("failed to list priority dates", "profile_id", profileID, "error", err)
		return nil, err
	}
	out := make([]entity.PriorityDate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
