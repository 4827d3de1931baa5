package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/common"
	"github.com/talahq/docintake/internal/entity"
)

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByHash(ctx context.Context, hash []byte) (*entity.Document, error)
	Create(ctx context.Context, filename string, contentType constants.ContentType, storageRef string, size int, hash []byte, category constants.Category) (*entity.Document, error)
	UpsertByHash(ctx context.Context, filename string, contentType constants.ContentType, storageRef string, size int, hash []byte, category constants.Category) (*entity.Document, bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error
	UpdateContentType(ctx context.Context, id uuid.UUID, contentType constants.ContentType) error
	ListByStatus(ctx context.Context, status constants.JobStatus, limit int) ([]*entity.Document, error)
	// ListCreatedBetween returns documents whose created_at falls in the
	// inclusive [from, to] window; nil bounds are open-ended.
	ListCreatedBetween(ctx context.Context, from, to *time.Time) ([]*entity.Document, error)
}

type documentRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *sql.DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

const documentCols = `id, filename, content_type, storage_ref, file_size, content_hash, category, status, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*entity.Document, error) {
	var d entity.Document
	var id string
	var ct, cat, st string
	if err := row.Scan(&id, &d.Filename, &ct, &d.StorageRef, &d.FileSize, &d.ContentHash, &cat, &st, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	d.ID = parsed
	d.ContentType = constants.ContentType(ct)
	d.Category = constants.Category(cat)
	d.Status = constants.JobStatus(st)
	return &d, nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentCols+` FROM documents WHERE id = $1`, id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrDocumentNotFound
	}
	if err != nil {
		r.logger.Error("failed to get document", "document_id", id, "error", err)
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByHash(ctx context.Context, hash []byte) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentCols+` FROM documents WHERE content_hash = $1`, hash)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) Create(ctx context.Context, filename string, contentType constants.ContentType, storageRef string, size int, hash []byte, category constants.Category) (*entity.Document, error) {
	now := time.Now().UTC()
	doc := &entity.Document{
		ID:          uuid.New(),
		Filename:    filename,
		ContentType: contentType,
		StorageRef:  storageRef,
		FileSize:    size,
		ContentHash: hash,
		Category:    category,
		Status:      constants.JobStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		doc.ID.String(), doc.Filename, string(doc.ContentType), doc.StorageRef, doc.FileSize,
		doc.ContentHash, string(doc.Category), string(doc.Status), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create document", "filename", filename, "error", err)
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) UpsertByHash(ctx context.Context, filename string, contentType constants.ContentType, storageRef string, size int, hash []byte, category constants.Category) (*entity.Document, bool, error) {
	if existing, err := r.GetByHash(ctx, hash); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, common.ErrDocumentNotFound) {
		return nil, false, err
	}
	doc, err := r.Create(ctx, filename, contentType, storageRef, size, hash, category)
	if err != nil {
		return nil, false, err
	}
	return doc, false, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to update document status", "document_id", id, "status", status, "error", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) UpdateContentType(ctx context.Context, id uuid.UUID, contentType constants.ContentType) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET content_type = $1, updated_at = $2 WHERE id = $3`,
		string(contentType), time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to update document content type", "document_id", id, "error", err)
	}
	return err
}

func (r *documentRepo) ListByStatus(ctx context.Context, status constants.JobStatus, limit int) ([]*entity.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentCols+` FROM documents WHERE status = $1 ORDER BY created_at LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *documentRepo) ListCreatedBetween(ctx context.Context, from, to *time.Time) ([]*entity.Document, error) {
	query := `SELECT ` + documentCols + ` FROM documents`
	var args []any
	var conds []string
	if from != nil {
		args = append(args, *from)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}
