package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job identifies one document waiting for a pipeline run.
type Job struct {
	DocumentID  uuid.UUID
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	// Enqueue blocks while the queue is full. Jobs submitted after
	// shutdown are dropped.
	Enqueue(ctx context.Context, job Job) error
	// Shutdown stops intake and drains queued jobs until ctx expires.
	Shutdown(ctx context.Context)
}
