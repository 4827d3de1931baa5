package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/common"
	"github.com/talahq/docintake/internal/detect"
	"github.com/talahq/docintake/internal/entity"
)

// Register records a document for processing. Content hashing makes intake
// idempotent: re-registering identical bytes returns the existing row.
// The bytes themselves stay in the storage backend under storageRef.
func (o *Orchestrator) Register(ctx context.Context, filename, storageRef string, data []byte, category constants.Category) (*entity.Document, bool, error) {
	if len(data) == 0 {
		return nil, false, fmt.Errorf("%w: empty document %q", common.ErrInvalidInput, filename)
	}
	contentType := detect.Detect(filename, "", data)
	if contentType == constants.Unknown {
		return nil, false, fmt.Errorf("%w: %s", common.ErrUnsupportedDocument, filename)
	}
	hash := sha256.Sum256(data)

	doc, created, err := o.docs.UpsertByHash(ctx, filename, contentType, storageRef, len(data), hash[:], category)
	if err != nil {
		return nil, false, err
	}
	if created {
		o.logger.Info("document registered",
			"document_id", doc.ID, "filename", filename,
			"content_type", contentType, "size", len(data))
	} else {
		o.logger.Info("document already registered",
			"document_id", doc.ID, "filename", filename)
	}
	return doc, created, nil
}
