package repository

import (
	"context"
	"database/sql"
	"encoding/json"
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

type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByProfileAndHash(ctx context.Context, profileID uuid.UUID, hash string) (*entity.Document, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.Document, error)
}

type documentRepository struct {
	c      conn
	logger *slog.Logger
}

const documentColumns = "id, profile_id, filename, mime_type, content_hash, size_bytes, document_type, detection_method, confidence, metadata, warnings, created_at"

// documentRow is the persisted shape of a document; metadata and warnings
// are JSON columns.
type documentRow struct {
	ID              uuid.UUID      `db:"id"`
	ProfileID       uuid.UUID      `db:"profile_id"`
	Filename        string         `db:"filename"`
	MIMEType        string         `db:"mime_type"`
	ContentHash     string         `db:"content_hash"`
	SizeBytes       int64          `db:"size_bytes"`
	DocumentType    string         `db:"document_type"`
	DetectionMethod string         `db:"detection_method"`
	Confidence      float64        `db:"confidence"`
	Metadata        types.JSONText `db:"metadata"`
	Warnings        types.JSONText `db:"warnings"`
	CreatedAt       time.Time      `db:"created_at"`
}

func toDocumentRow(d *entity.Document) (documentRow, error) {
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return documentRow{}, fmt.Errorf("encode metadata: %w", err)
	}
	warnings := d.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warn, err := json.Marshal(warnings)
	if err != nil {
		return documentRow{}, fmt.Errorf("encode warnings: %w", err)
	}
	return documentRow{
		ID:              d.ID,
		ProfileID:       d.ProfileID,
		Filename:        d.Filename,
		MIMEType:        d.MIMEType,
		ContentHash:     d.ContentHash,
		SizeBytes:       d.SizeBytes,
		DocumentType:    string(d.DocumentType),
		DetectionMethod: string(d.DetectionMethod),
		Confidence:      d.Confidence,
		Metadata:        meta,
		Warnings:        warn,
		CreatedAt:       d.CreatedAt,
	}, nil
}

func (r documentRow) toEntity() (*entity.Document, error) {
	d := &entity.Document{
		ID:              r.ID,
		ProfileID:       r.ProfileID,
		Filename:        r.Filename,
		MIMEType:        r.MIMEType,
		ContentHash:     r.ContentHash,
		SizeBytes:       r.SizeBytes,
		DocumentType:    constants.DocumentType(r.DocumentType),
		DetectionMethod: constants.DetectionMethod(r.DetectionMethod),
		Confidence:      r.Confidence,
		CreatedAt:       r.CreatedAt,
	}
	if err := r.Metadata.Unmarshal(&d.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := r.Warnings.Unmarshal(&d.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	if len(d.Warnings) == 0 {
		d.Warnings = nil
	}
	return d, nil
}

// Create inserts d, assigning an id and creation time when unset.
func (r *documentRepository) Create(ctx context.Context, d *entity.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Metadata == nil {
		d.Metadata = map[string]string{}
	}
	row, err := toDocumentRow(d)
	if err != nil {
		return err
	}

	_, err = r.c.namedExec(ctx, `INSERT INTO documents (`+documentColumns+`) VALUES (
		:id, :profile_id, :filename, :mime_type, :content_hash, :size_bytes,
		:document_type, :detection_method, :confidence, :metadata, :warnings, :created_at)`, row)
	if err != nil {
		r.logger.Error("failed to create document", "profile_id", d.ProfileID, "filename", d.Filename, "error", err)
		return err
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var row documentRow
	err := r.c.get(ctx, &row, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get document", "document_id", id, "error", err)
		return nil, err
	}
	return row.toEntity()
}

// GetByProfileAndHash returns the earliest document with the same content for
// the profile, or ErrNotFound.
func (r *documentRepository) GetByProfileAndHash(ctx context.Context, profileID uuid.UUID, hash string) (*entity.Document, error) {
	var row documentRow
	err := r.c.get(ctx, &row,
		"SELECT "+documentColumns+" FROM documents WHERE profile_id = ? AND content_hash = ? ORDER BY created_at LIMIT 1",
		profileID, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document with hash %s: %w", hash, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get document by profile and hash", "profile_id", profileID, "error", err)
		return nil, err
	}
	return row.toEntity()
}

func (r *documentRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.Document, error) {
	var rows []documentRow
	err := r.c.selectAll(ctx, &rows,
		"SELECT "+documentColumns+" FROM documents WHERE profile_id = ? ORDER BY created_at, id", profileID)
	if err != nil {
		r.logger.Error("failed to list documents", "profile_id", profileID, "error", err)
		return nil, err
	}
	out := make([]*entity.Document, 0, len(rows))
	for _, row := range rows {
		d, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
