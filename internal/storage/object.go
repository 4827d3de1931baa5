package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ObjectBackend fetches documents from a remote object store over HTTP.
// The base URL points at the bucket root; references are object keys.
type ObjectBackend struct {
	BaseURL string
	Client  *http.Client
}

func NewObjectBackend(baseURL string) *ObjectBackend {
	return &ObjectBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *ObjectBackend) Name() string { return "object" }

func (b *ObjectBackend) FetchBytes(ctx context.Context, ref string) ([]byte, error) {
	u := b.BaseURL + "/" + url.PathEscape(strings.TrimLeft(ref, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch object %q: %w", ref, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch object %q: unexpected status %d", ref, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
