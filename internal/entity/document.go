package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

// Document is a persisted uploaded document and its mapped metadata.
type Document struct {
	ID              uuid.UUID                 `json:"id"`
	ProfileID       uuid.UUID                 `json:"profile_id"`
	Filename        string                    `json:"filename"`
	MIMEType        string                    `json:"mime_type"`
	ContentHash     string                    `json:"content_hash"`
	SizeBytes       int64                     `json:"size_bytes"`
	DocumentType    constants.DocumentType    `json:"document_type"`
	DetectionMethod constants.DetectionMethod `json:"detection_method"`
	Confidence      float64                   `json:"confidence"`
	Metadata        map[string]string         `json:"metadata"`
	Warnings        []string                  `json:"warnings,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// ExtractJob is the audit row for one pipeline run over a document.
type ExtractJob struct {
	ID            uuid.UUID           `json:"id"`
	DocumentID    *uuid.UUID          `json:"document_id,omitempty"`
	ProfileID     uuid.UUID           `json:"profile_id"`
	Format        string              `json:"format"`
	Method        string              `json:"method,omitempty"`
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    *time.Time          `json:"finished_at,omitempty"`
	Status        constants.JobStatus `json:"status"`
	ErrorMessage  *string             `json:"error_message,omitempty"`
	Confidence    *float64            `json:"confidence,omitempty"`
	NeedsReview   bool                `json:"needs_review"`
	OCRText       *string             `json:"ocr_text,omitempty"`
	ExtractedJSON []byte              `json:"extracted_json,omitempty"`
}

// PriorityDate is one entry in a profile's additive priority-date history.
type PriorityDate struct {
	ID           uuid.UUID              `json:"id"`
	ProfileID    uuid.UUID              `json:"profile_id"`
	DocumentID   *uuid.UUID             `json:"document_id,omitempty"`
	Date         string                 `json:"date"`
	DocumentType constants.DocumentType `json:"document_type"`
	CreatedAt    time.Time              `json:"created_at"`
}
