package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionResult is one text-extraction run over a document. Re-running
// extraction writes a new row and supersedes the previous current one.
type ExtractionResult struct {
	ID            uuid.UUID `json:"id"`
	DocumentID    uuid.UUID `json:"document_id"`
	Text          string    `json:"text"`
	TextLength    int       `json:"text_length"`
	Method        string    `json:"method"`
	OCRConfidence *float32  `json:"ocr_confidence,omitempty"`
	Pages         int       `json:"pages"`
	DurationMs    int64     `json:"duration_ms"`
	Current       bool      `json:"current"`
	CreatedAt     time.Time `json:"created_at"`
}
