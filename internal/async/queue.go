package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document file waiting to be uploaded for a profile.
type Job struct {
	ProfileID   uuid.UUID
	Path        string
	MIMEType    string
	Hint        constants.DocumentType
	SubmittedAt time.Time
	TraceID     string
}

// Handler processes a single job; errors are logged by the queue.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
