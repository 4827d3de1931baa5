// Package textract turns a stored document into text. One strategy per
// content type, all behind a single extractor with an OCR fallback chain
// for documents whose native text is too thin to be trusted.
package textract

import (
	"context"
	"time"

	"github.com/talahq/docintake/constants"
)

// Extraction methods recorded on results.
const (
	MethodPDFText   = "pdf-text"
	MethodPDFOCR    = "pdf-ocr"
	MethodDocxText  = "docx-text"
	MethodDocText   = "doc-text"
	MethodDocOCR    = "doc-ocr"
	MethodSheetText = "sheet-text"
	MethodPlainText = "plain-text"
	MethodRTFText   = "rtf-text"
	MethodImageOCR  = "image-ocr"
)

// MinNativeChars is the fallback trigger: a native extraction with fewer
// non-whitespace characters than this is retried through OCR.
const MinNativeChars = 100

// Result is the outcome of one extraction run.
type Result struct {
	Text        string
	Pages       int
	ContentType constants.ContentType
	Method      string
	// OCRConfidence is in [0,1] and only meaningful when an OCR method won.
	OCRConfidence float32
	LikelyScanned bool
	Duration      time.Duration
	Warnings      []string
	Metadata      map[string]string
}

// TextExtractor is the stage contract the orchestrator consumes.
type TextExtractor interface {
	Extract(ctx context.Context, path string, contentType constants.ContentType) (Result, error)
}
