package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/entity"
)

// ParseOutcome carries everything the extraction + validation stages produce
// for persistence on the job row.
type ParseOutcome struct {
	DocumentType     string
	Confidence       float32
	NeedsReview      bool
	ParseResult      json.RawMessage
	ValidationResult json.RawMessage
}

type PipelineJobRepository interface {
	Start(ctx context.Context, documentID uuid.UUID) (*entity.PipelineJob, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.PipelineJob, error)
	// GetActive returns the non-terminal, non-review job for a document, if any.
	GetActive(ctx context.Context, documentID uuid.UUID) (*entity.PipelineJob, error)
	// GetLatest returns the most recently started job for a document.
	GetLatest(ctx context.Context, documentID uuid.UUID) (*entity.PipelineJob, error)
	UpdateStatus(ctx context.Context, jobID uuid.UUID, status constants.JobStatus) error
	FinishSuccess(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, outcome ParseOutcome) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Confirm(ctx context.Context, jobID uuid.UUID, confirmed json.RawMessage) error
}

type pipelineJobRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPipelineJobRepository(db *sql.DB, logger *slog.Logger) PipelineJobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &pipelineJobRepo{db: db, logger: logger}
}

const jobCols = `id, document_id, status, started_at, completed_at, last_error, document_type, confidence, needs_review, parse_result, validation_result, confirmed_data`

func scanJob(row interface{ Scan(...any) error }) (*entity.PipelineJob, error) {
	var j entity.PipelineJob
	var id, docID, st string
	var parse, validation, confirmed sql.NullString
	if err := row.Scan(&id, &docID, &st, &j.StartedAt, &j.CompletedAt, &j.LastError,
		&j.DocumentType, &j.Confidence, &j.NeedsReview, &parse, &validation, &confirmed); err != nil {
		return nil, err
	}
	var err error
	if j.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if j.DocumentID, err = uuid.Parse(docID); err != nil {
		return nil, err
	}
	j.Status = constants.JobStatus(st)
	if parse.Valid {
		j.ParseResult = json.RawMessage(parse.String)
	}
	if validation.Valid {
		j.ValidationResult = json.RawMessage(validation.String)
	}
	if confirmed.Valid {
		j.ConfirmedData = json.RawMessage(confirmed.String)
	}
	return &j, nil
}

func rawOrNull(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}

func (r *pipelineJobRepo) Start(ctx context.Context, documentID uuid.UUID) (*entity.PipelineJob, error) {
	job := &entity.PipelineJob{
		ID:         uuid.New(),
		DocumentID: documentID,
		Status:     constants.JobStatusUploaded,
		StartedAt:  time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pipeline_jobs (id, document_id, status, started_at, needs_review) VALUES ($1,$2,$3,$4,$5)`,
		job.ID.String(), documentID.String(), string(job.Status), job.StartedAt, false)
	if err != nil {
		r.logger.Error("pipeline_job start failed", "document_id", documentID, "err", err)
		return nil, err
	}
	r.logger.Info("pipeline_job started", "job_id", job.ID, "document_id", documentID)
	return job, nil
}

func (r *pipelineJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.PipelineJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobCols+` FROM pipeline_jobs WHERE id = $1`, jobID.String())
	return scanJob(row)
}

func (r *pipelineJobRepo) GetActive(ctx context.Context, documentID uuid.UUID) (*entity.PipelineJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobCols+` FROM pipeline_jobs
		 WHERE document_id = $1 AND status IN ('UPLOADED','PARSING','EXTRACTING','VALIDATING')
		 ORDER BY started_at DESC LIMIT 1`,
		documentID.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

func (r *pipelineJobRepo) GetLatest(ctx context.Context, documentID uuid.UUID) (*entity.PipelineJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobCols+` FROM pipeline_jobs WHERE document_id = $1 ORDER BY started_at DESC LIMIT 1`,
		documentID.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

func (r *pipelineJobRepo) UpdateStatus(ctx context.Context, jobID uuid.UUID, status constants.JobStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_jobs SET status = $1 WHERE id = $2`,
		string(status), jobID.String())
	if err != nil {
		r.logger.Error("pipeline_job status update failed", "job_id", jobID, "status", status, "err", err)
	}
	return err
}

func (r *pipelineJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, outcome ParseOutcome) error {
	var completed *time.Time
	if status.IsTerminal() {
		now := time.Now().UTC()
		completed = &now
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_jobs SET status = $1, completed_at = $2, document_type = $3,
		 confidence = $4, needs_review = $5, parse_result = $6, validation_result = $7
		 WHERE id = $8`,
		string(status), completed, outcome.DocumentType, outcome.Confidence, outcome.NeedsReview,
		rawOrNull(outcome.ParseResult), rawOrNull(outcome.ValidationResult), jobID.String())
	if err != nil {
		r.logger.Error("pipeline_job finish failed", "job_id", jobID, "err", err)
		return err
	}
	r.logger.Info("pipeline_job finished", "job_id", jobID, "status", status,
		"document_type", outcome.DocumentType, "confidence", outcome.Confidence, "needs_review", outcome.NeedsReview)
	return nil
}

func (r *pipelineJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_jobs SET status = $1, completed_at = $2, last_error = $3 WHERE id = $4`,
		string(constants.JobStatusError), now, message, jobID.String())
	if err != nil {
		r.logger.Error("pipeline_job finish(ERROR) failed", "job_id", jobID, "err", err)
		return err
	}
	r.logger.Warn("pipeline_job finished (ERROR)", "job_id", jobID, "error", message)
	return nil
}

func (r *pipelineJobRepo) Confirm(ctx context.Context, jobID uuid.UUID, confirmed json.RawMessage) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_jobs SET status = $1, completed_at = $2, confirmed_data = $3
		 WHERE id = $4 AND status = $5`,
		string(constants.JobStatusConfirmed), now, string(confirmed), jobID.String(),
		string(constants.JobStatusManualReview))
	if err != nil {
		r.logger.Error("pipeline_job confirm failed", "job_id", jobID, "err", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("job is not awaiting manual review")
	}
	r.logger.Info("pipeline_job confirmed", "job_id", jobID)
	return nil
}
