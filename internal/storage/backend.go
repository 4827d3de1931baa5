package storage

import (
	"context"
)

// Backend fetches a document's raw bytes by its storage reference.
// References are backend-specific: filesystem paths or object keys.
type Backend interface {
	FetchBytes(ctx context.Context, ref string) ([]byte, error)
	Name() string
}
