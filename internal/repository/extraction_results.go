package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talahq/docintake/internal/entity"
)

type ExtractionResultRepository interface {
	// Save stores a new extraction result and supersedes any previous
	// current result for the same document.
	Save(ctx context.Context, res *entity.ExtractionResult) error
	GetCurrent(ctx context.Context, documentID uuid.UUID) (*entity.ExtractionResult, error)
}

type extractionResultRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExtractionResultRepository(db *sql.DB, logger *slog.Logger) ExtractionResultRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractionResultRepo{db: db, logger: logger}
}

func (r *extractionResultRepo) Save(ctx context.Context, res *entity.ExtractionResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE extraction_results SET current = FALSE WHERE document_id = $1 AND current = TRUE`,
		res.DocumentID.String()); err != nil {
		r.logger.Error("failed to supersede extraction results", "document_id", res.DocumentID, "error", err)
		return err
	}

	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	res.Current = true
	res.TextLength = len(res.Text)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO extraction_results
		 (id, document_id, text, text_length, method, ocr_confidence, pages, duration_ms, current, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		res.ID.String(), res.DocumentID.String(), res.Text, res.TextLength, res.Method,
		res.OCRConfidence, res.Pages, res.DurationMs, res.Current, res.CreatedAt); err != nil {
		r.logger.Error("failed to save extraction result", "document_id", res.DocumentID, "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.logger.Info("extraction result saved", "document_id", res.DocumentID, "method", res.Method, "text_length", res.TextLength)
	return nil
}

func (r *extractionResultRepo) GetCurrent(ctx context.Context, documentID uuid.UUID) (*entity.ExtractionResult, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, document_id, text, text_length, method, ocr_confidence, pages, duration_ms, current, created_at
		 FROM extraction_results WHERE document_id = $1 AND current = TRUE`,
		documentID.String())

	var res entity.ExtractionResult
	var id, docID string
	err := row.Scan(&id, &docID, &res.Text, &res.TextLength, &res.Method,
		&res.OCRConfidence, &res.Pages, &res.DurationMs, &res.Current, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	if res.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if res.DocumentID, err = uuid.Parse(docID); err != nil {
		return nil, err
	}
	return &res, nil
}
