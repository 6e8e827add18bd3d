// Package documents is the upload use case: validate, run the pipeline,
// persist the document and reconcile the owning profile.
package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
	"github.com/joseph-ayodele/immigration-docs/internal/mapping"
	"github.com/joseph-ayodele/immigration-docs/internal/pipeline"
	"github.com/joseph-ayodele/immigration-docs/internal/reconcile"
	"github.com/joseph-ayodele/immigration-docs/internal/repository"
)

const (
	maxFilenameLen     = 255
	defaultMaxUploadMB = 25
)

// Pipeline is the part of *pipeline.Processor the service needs.
type Pipeline interface {
	Process(ctx context.Context, in pipeline.Input) (pipeline.Output, error)
}

type Service struct {
	store    *repository.Store
	pipeline Pipeline
	logger   *slog.Logger
	maxBytes int64
}

type Option func(*Service)

// WithMaxUploadBytes bounds the accepted payload; zero or less keeps the default.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func NewService(store *repository.Store, p Pipeline, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		pipeline: p,
		logger:   logger,
		maxBytes: defaultMaxUploadMB << 20,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type UploadRequest struct {
	ProfileID string
	Filename  string
	MIMEType  string
	Data      []byte
	Hint      string
}

type UploadResult struct {
	Document          *entity.Document   `json:"document"`
	JobID             uuid.UUID          `json:"job_id"`
	Output            pipeline.Output    `json:"output"`
	Decision          reconcile.Decision `json:"decision"`
	PriorityDateAdded bool               `json:"priority_date_added"`
}

// Upload runs one document end to end. Pipeline degradation shows up as
// warnings on the result; only validation, a missing profile and storage
// failures are returned as errors.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	v := common.NewValidator().
		Field("profile_id", req.ProfileID, common.Required, common.UUID).
		Field("filename", req.Filename, common.Required, common.MaxLength(maxFilenameLen)).
		Field("mime_type", req.MIMEType, common.Required, common.SupportedMIME).
		Field("data", req.Data, common.Required, common.MaxBytes(s.maxBytes)).
		Field("hint", req.Hint, common.DocumentTypeHint)
	if v.HasErrors() {
		s.logger.Warn("documents.upload.invalid", "filename", req.Filename, "error", v.ErrorMessage())
		return nil, common.NewAppError("INVALID_ARGUMENT", v.ErrorMessage(), v.Error())
	}
	profileID := uuid.MustParse(req.ProfileID)
	hint, _ := constants.ParseDocumentType(req.Hint)
	mimeType := constants.NormalizeMIME(req.MIMEType)

	ok, err := s.store.Profiles.Exists(ctx, profileID)
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "check profile", errors.Join(common.ErrDatabase, err))
	}
	if !ok {
		return nil, common.NewAppError("NOT_FOUND", "profile "+profileID.String(), common.ErrNotFound)
	}

	job, err := s.store.Jobs.Start(ctx, profileID, constants.MapMIMEToFormat(mimeType), constants.JobStatusQueued)
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "start extract job", errors.Join(common.ErrDatabase, err))
	}
	log := s.logger.With("job_id", job.ID, "profile_id", profileID, "filename", req.Filename)
	if err := s.store.Jobs.SetStatus(ctx, job.ID, constants.JobStatusRunning); err != nil {
		return nil, s.fail(ctx, job.ID, common.NewAppError("DATABASE_ERROR", "mark job running", errors.Join(common.ErrDatabase, err)))
	}

	sum := sha256.Sum256(req.Data)
	hash := hex.EncodeToString(sum[:])
	ctx = common.WithContentHash(common.WithProfileID(ctx, profileID.String()), hash)

	out, err := s.pipeline.Process(ctx, pipeline.Input{
		Data:     req.Data,
		MIMEType: mimeType,
		Filename: req.Filename,
		Hint:     hint,
	})
	if err != nil {
		log.Error("documents.upload.pipeline_failed", "error", err)
		return nil, s.fail(ctx, job.ID, err)
	}
	if err := s.store.Jobs.SetStatus(ctx, job.ID, constants.JobStatusExtracted); err != nil {
		return nil, s.fail(ctx, job.ID, common.NewAppError("DATABASE_ERROR", "mark job extracted", errors.Join(common.ErrDatabase, err)))
	}

	doc := &entity.Document{
		ProfileID:       profileID,
		Filename:        req.Filename,
		MIMEType:        mimeType,
		ContentHash:     hash,
		SizeBytes:       int64(len(req.Data)),
		DocumentType:    out.Mapping.DocumentType,
		DetectionMethod: out.Detection.Method,
		Confidence:      out.Detection.Confidence,
		Metadata:        out.Mapping.DocumentMetadata,
		Warnings:        documentWarnings(out),
	}
	res := &UploadResult{Document: doc, JobID: job.ID, Output: out}

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := tx.Documents.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		current, err := tx.Profiles.GetForUpdate(ctx, profileID)
		if err != nil {
			return fmt.Errorf("lock profile: %w", err)
		}

		res.Decision = reconcile.Reconcile(*current, profileUpdates(out.Mapping), reconcile.Options{
			SourceDate: out.Extracted.AdmissionDate,
		})
		if len(res.Decision.Applied) > 0 {
			fields := make([]string, 0, len(res.Decision.Applied))
			for _, c := range res.Decision.Applied {
				fields = append(fields, c.Field)
			}
			if err := tx.Profiles.UpdateFields(ctx, &res.Decision.Profile, fields); err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
		}

		if pd := out.Mapping.PriorityDateUpdate; pd != nil {
			added, err := tx.PriorityDates.Append(ctx, &entity.PriorityDate{
				ProfileID:    profileID,
				DocumentID:   &doc.ID,
				Date:         pd.Date,
				DocumentType: pd.DocumentType,
			})
			if err != nil {
				return fmt.Errorf("append priority date: %w", err)
			}
			res.PriorityDateAdded = added
		}
		return nil
	})
	if err != nil {
		log.Error("documents.upload.persist_failed", "error", err)
		return nil, s.fail(ctx, job.ID, common.NewAppError("DATABASE_ERROR", "persist document", errors.Join(common.ErrDatabase, err)))
	}

	if hint := out.Mapping.StatusHint; hint != nil {
		log.Info("documents.upload.status_hint", "category", hint.Category, "description", hint.Description, "status_code", hint.StatusCode)
	}

	extracted, err := json.Marshal(out.Extracted)
	if err != nil {
		log.Warn("documents.upload.encode_failed", "error", err)
	}
	if err := s.store.Jobs.FinishSuccess(ctx, job.ID, repository.JobResult{
		DocumentID:    doc.ID,
		Method:        jobMethod(out),
		OCRText:       out.OCR.Text,
		Confidence:    overallConfidence(out.Extracted),
		NeedsReview:   needsReview(out),
		ExtractedJSON: extracted,
	}); err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "finish extract job", errors.Join(common.ErrDatabase, err))
	}

	log.Info("documents.upload.ok",
		"document_id", doc.ID,
		"document_type", doc.DocumentType,
		"applied", len(res.Decision.Applied),
		"skipped", len(res.Decision.Skipped),
		"warnings", len(doc.Warnings),
	)
	return res, nil
}

// fail marks the job FAILED and returns err unchanged.
func (s *Service) fail(ctx context.Context, jobID uuid.UUID, err error) error {
	if ferr := s.store.Jobs.FinishFailure(ctx, jobID, err.Error()); ferr != nil {
		s.logger.Error("documents.upload.job_fail_failed", "job_id", jobID, "error", ferr)
	}
	return err
}

// profileUpdates adds the passport country to the mapped updates.
func profileUpdates(m entity.MappingResult) map[string]string {
	out := make(map[string]string, len(m.ProfileUpdates)+1)
	for k, v := range m.ProfileUpdates {
		out[k] = v
	}
	if m.CountryLookup != nil {
		if c := strings.TrimSpace(*m.CountryLookup); c != "" {
			out[entity.ProfilePassportCountry] = c
		}
	}
	return out
}

// documentWarnings merges extraction and mapping warnings without repeats.
func documentWarnings(out pipeline.Output) []string {
	seen := map[string]bool{}
	var ws []string
	for _, list := range [][]string{out.Extracted.Warnings, out.Mapping.Warnings} {
		for _, w := range list {
			if !seen[w] {
				seen[w] = true
				ws = append(ws, w)
			}
		}
	}
	return ws
}

func jobMethod(out pipeline.Output) string {
	m := out.OCR.Method
	if m == "" {
		m = "none"
	}
	if out.VisionUsed {
		m += "+vision"
	}
	return m
}

func overallConfidence(d entity.ExtractedData) float64 {
	if v, ok := d.ConfidenceScores[entity.ConfidenceOverall]; ok {
		return v
	}
	return 0
}

// needsReview flags runs whose scores fell below the auto-populate threshold
// or that carried any warning.
func needsReview(out pipeline.Output) bool {
	if len(out.Extracted.Warnings) > 0 || len(out.Mapping.Warnings) > 0 {
		return true
	}
	threshold := mapping.DefaultConfidenceThreshold
	if info, ok := mapping.MappingInfo(out.Mapping.DocumentType); ok {
		threshold = info.ConfidenceThreshold
	}
	for _, score := range out.Extracted.ConfidenceScores {
		if score < threshold {
			return true
		}
	}
	return false
}
