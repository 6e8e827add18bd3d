package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/immigration-docs/internal/async"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/documents"
)

// HandleJob reads the queued file and uploads it for its profile. It is the
// async.Handler used by the batch runner and the inbox daemon.
func (a *App) HandleJob(ctx context.Context, job async.Job) error {
	ctx = common.WithRequestID(ctx, job.TraceID)
	data, err := os.ReadFile(job.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", job.Path, err)
	}
	sum := sha256.Sum256(data)
	stored, err := a.AlreadyStored(ctx, job.ProfileID, hex.EncodeToString(sum[:]))
	if err != nil {
		return err
	}
	if stored {
		a.Logger.Info("inbox.document.duplicate", "path", job.Path, "trace_id", job.TraceID)
		return nil
	}
	res, err := a.Documents.Upload(ctx, documents.UploadRequest{
		ProfileID: job.ProfileID.String(),
		Filename:  filepath.Base(job.Path),
		MIMEType:  job.MIMEType,
		Data:      data,
		Hint:      job.Hint.String(),
	})
	if err != nil {
		return err
	}
	a.Logger.Info("inbox.document.stored",
		"path", job.Path,
		"trace_id", job.TraceID,
		"document_id", res.Document.ID,
		"document_type", res.Document.DocumentType,
		"job_id", res.JobID,
		"profile_changes", len(res.Decision.Applied),
	)
	return nil
}

// AlreadyStored reports whether the profile already has a document with this
// content hash.
func (a *App) AlreadyStored(ctx context.Context, profileID uuid.UUID, hashHex string) (bool, error) {
	_, err := a.Store.Documents.GetByProfileAndHash(ctx, profileID, hashHex)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check stored document: %w", err)
	}
}
