package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/talahq/docintake/constants"
)

// PipelineJob tracks one execution of the multi-stage pipeline for a document.
type PipelineJob struct {
	ID               uuid.UUID           `json:"id"`
	DocumentID       uuid.UUID           `json:"document_id"`
	Status           constants.JobStatus `json:"status"`
	StartedAt        time.Time           `json:"started_at"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	LastError        *string             `json:"last_error,omitempty"`
	DocumentType     *string             `json:"document_type,omitempty"`
	Confidence       *float32            `json:"confidence,omitempty"`
	NeedsReview      bool                `json:"needs_review"`
	ParseResult      json.RawMessage     `json:"parse_result,omitempty"`
	ValidationResult json.RawMessage     `json:"validation_result,omitempty"`
	ConfirmedData    json.RawMessage     `json:"confirmed_data,omitempty"`
}

// ManuallyConfirmed reports whether the job was completed through the
// manual-review confirm operation rather than automatically.
func (j *PipelineJob) ManuallyConfirmed() bool {
	return j.Status == constants.JobStatusConfirmed && len(j.ConfirmedData) > 0
}
