package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// HTTPEngine is the secondary OCR engine: a self-hosted or cloud recognition
// service reached over HTTP. It receives the raw image bytes and answers
// with text plus per-token confidences.
type HTTPEngine struct {
	URL    string
	Client *http.Client
}

func NewHTTPEngine(url string) *HTTPEngine {
	return &HTTPEngine{
		URL:    url,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *HTTPEngine) Name() string { return "ocr-http" }

type httpRecognition struct {
	Text        string    `json:"text"`
	Confidences []float32 `json:"confidences"`
}

func (e *HTTPEngine) Recognize(ctx context.Context, imagePath string) (Recognition, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return Recognition{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(data))
	if err != nil {
		return Recognition{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.Client.Do(req)
	if err != nil {
		return Recognition{}, fmt.Errorf("ocr http: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Recognition{}, fmt.Errorf("ocr http: status %d: %s", resp.StatusCode, body)
	}

	var out httpRecognition
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Recognition{}, fmt.Errorf("ocr http: decode response: %w", err)
	}
	return Recognition{Text: out.Text, TokenConfidences: out.Confidences}, nil
}
