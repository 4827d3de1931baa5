package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/talahq/docintake/constants"
)

// Document represents an uploaded file for data transfer between layers.
type Document struct {
	ID          uuid.UUID             `json:"id"`
	Filename    string                `json:"filename"`
	ContentType constants.ContentType `json:"content_type"`
	StorageRef  string                `json:"storage_ref"`
	FileSize    int                   `json:"file_size"`
	ContentHash []byte                `json:"content_hash"`
	Category    constants.Category    `json:"category"`
	Status      constants.JobStatus   `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}
