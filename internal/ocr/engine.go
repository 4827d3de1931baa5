// Package ocr provides pluggable OCR engines behind one interface.
// Engines are resolved once at startup from configuration; a missing
// capability is an explicit nil engine, never a runtime surprise.
package ocr

import "context"

// Recognition is the raw output of one OCR pass over a single image.
type Recognition struct {
	Text string
	// per-token confidences in [0,1]; may be empty when the engine
	// cannot report them
	TokenConfidences []float32
}

// Confidence returns the mean token confidence in [0,1], or 0 when the
// engine reported none.
func (r Recognition) Confidence() float32 {
	if len(r.TokenConfidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range r.TokenConfidences {
		sum += float64(c)
	}
	mean := float32(sum / float64(len(r.TokenConfidences)))
	if mean > 1 {
		mean = 1
	}
	if mean < 0 {
		mean = 0
	}
	return mean
}

// Engine recognizes text in a rasterized image file.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (Recognition, error)
	Name() string
}
