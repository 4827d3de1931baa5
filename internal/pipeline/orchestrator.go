// Package pipeline drives a document through its processing stages:
// extraction, classification, field extraction, and validation. The
// orchestrator owns the job state machine and guarantees at most one
// active job per document.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/classify"
	"github.com/talahq/docintake/internal/common"
	"github.com/talahq/docintake/internal/detect"
	"github.com/talahq/docintake/internal/entity"
	"github.com/talahq/docintake/internal/fields"
	"github.com/talahq/docintake/internal/repository"
	"github.com/talahq/docintake/internal/storage"
	"github.com/talahq/docintake/internal/textract"
	"github.com/talahq/docintake/internal/validate"
)

// ambiguityThreshold marks a classification too weak to trust without a
// human looking at it, independent of the configurable field-confidence gate.
const ambiguityThreshold = 0.5

type Orchestrator struct {
	cfg        common.PipelineConfig
	docs       repository.DocumentRepository
	jobs       repository.PipelineJobRepository
	results    repository.ExtractionResultRepository
	store      storage.Backend
	extractor  textract.TextExtractor
	classifier *classify.Classifier
	registry   *fields.Registry
	validator  *validate.Validator
	logger     *slog.Logger

	confirmSchemas map[constants.DocumentType]*jsonschema.Schema

	mu       sync.Mutex
	inFlight map[uuid.UUID]*inflightRun
}

// inflightRun is the handle concurrent Process calls rendezvous on. The
// first caller publishes its job and closes started; later callers wait
// and return that job instead of opening a second one.
type inflightRun struct {
	started chan struct{}
	once    sync.Once
	job     *entity.PipelineJob
}

func (r *inflightRun) publish(job *entity.PipelineJob) {
	r.once.Do(func() {
		r.job = job
		close(r.started)
	})
}

func NewOrchestrator(
	cfg common.PipelineConfig,
	docs repository.DocumentRepository,
	jobs repository.PipelineJobRepository,
	results repository.ExtractionResultRepository,
	store storage.Backend,
	extractor textract.TextExtractor,
	classifier *classify.Classifier,
	registry *fields.Registry,
	validator *validate.Validator,
	logger *slog.Logger,
) (*Orchestrator, error) {
	schemas, err := compileConfirmSchemas()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:            cfg,
		docs:           docs,
		jobs:           jobs,
		results:        results,
		store:          store,
		extractor:      extractor,
		classifier:     classifier,
		registry:       registry,
		validator:      validator,
		logger:         logger,
		confirmSchemas: schemas,
		inFlight:       make(map[uuid.UUID]*inflightRun),
	}, nil
}

// Process runs the full pipeline for a document. It is idempotent: if a job
// is already active for the document, that job is returned instead of
// starting a second one.
func (o *Orchestrator) Process(ctx context.Context, documentID uuid.UUID) (*entity.PipelineJob, error) {
	o.mu.Lock()
	if run, busy := o.inFlight[documentID]; busy {
		o.mu.Unlock()
		select {
		case <-run.started:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if run.job != nil {
			return run.job, nil
		}
		return nil, fmt.Errorf("%w: document %s is already being processed", common.ErrPipeline, documentID)
	}
	run := &inflightRun{started: make(chan struct{})}
	o.inFlight[documentID] = run
	o.mu.Unlock()
	defer func() {
		run.publish(nil)
		o.mu.Lock()
		delete(o.inFlight, documentID)
		o.mu.Unlock()
	}()

	if active, err := o.jobs.GetActive(ctx, documentID); err != nil {
		return nil, err
	} else if active != nil {
		o.logger.Info("reusing active job", "document_id", documentID, "job_id", active.ID)
		run.publish(active)
		return active, nil
	}

	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := common.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	job, err := o.jobs.Start(ctx, documentID)
	if err != nil {
		return nil, err
	}
	run.publish(job)
	log := o.logger.With("document_id", documentID, "job_id", job.ID)
	if rid := common.RequestIDFromContext(ctx); rid != "" {
		log = log.With("request_id", rid)
	}
	log.Info("pipeline run started", "filename", doc.Filename)

	if err := o.run(ctx, doc, job, log); err != nil {
		log.Error("pipeline run failed", "error", err)
		if ferr := o.jobs.FinishFailure(context.WithoutCancel(ctx), job.ID, err.Error()); ferr != nil {
			log.Error("failed to record job failure", "error", ferr)
		}
		_ = o.docs.UpdateStatus(context.WithoutCancel(ctx), doc.ID, constants.JobStatusError)
		return nil, err
	}

	return o.jobs.GetByID(ctx, job.ID)
}

func (o *Orchestrator) run(ctx context.Context, doc *entity.Document, job *entity.PipelineJob, log *slog.Logger) error {
	workDir, err := os.MkdirTemp("", "docintake-*")
	if err != nil {
		return fmt.Errorf("%w: create work dir: %v", common.ErrPipeline, err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	// PARSING: fetch bytes, confirm the format, extract text.
	if err := o.transition(ctx, doc, job, constants.JobStatusParsing); err != nil {
		return err
	}
	data, err := o.store.FetchBytes(ctx, doc.StorageRef)
	if err != nil {
		return fmt.Errorf("%w: fetch %s from %s: %v", common.ErrPipeline, doc.StorageRef, o.store.Name(), err)
	}

	contentType := detect.Detect(doc.Filename, "", data)
	if contentType == constants.Unknown {
		return fmt.Errorf("%w: %s", common.ErrUnsupportedDocument, doc.Filename)
	}
	if contentType != doc.ContentType {
		log.Warn("stored content type corrected by detection",
			"stored", doc.ContentType, "detected", contentType)
		if err := o.docs.UpdateContentType(ctx, doc.ID, contentType); err != nil {
			return err
		}
		doc.ContentType = contentType
	}

	path := filepath.Join(workDir, "input"+filepath.Ext(doc.Filename))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: stage input file: %v", common.ErrPipeline, err)
	}

	extractCtx, cancel := common.WithTimeout(ctx, o.cfg.ExtractTimeout)
	extracted, err := o.extractor.Extract(extractCtx, path, contentType)
	cancel()
	if err != nil {
		return err
	}
	if err := o.saveExtraction(ctx, doc.ID, extracted); err != nil {
		return err
	}

	// EXTRACTING: classify, then run the per-type field extractor.
	if err := o.transition(ctx, doc, job, constants.JobStatusExtracting); err != nil {
		return err
	}
	classification := o.classifier.Classify(extracted.Text)
	log.Info("document classified",
		"type", classification.Type, "confidence", classification.Confidence,
		"scores", classification.Scores)

	extractor, err := o.registry.ForType(classification.Type)
	if err != nil {
		return err
	}
	record, err := extractor.Extract(extracted.Text)
	if err != nil {
		return err
	}

	// VALIDATING: normalize and validate the extracted record.
	if err := o.transition(ctx, doc, job, constants.JobStatusValidating); err != nil {
		return err
	}
	validation, err := o.validator.Validate(record)
	if err != nil {
		return err
	}

	needsReview := !validation.IsValid ||
		record.Confidence < o.cfg.MinConfidence ||
		classification.Confidence < ambiguityThreshold

	finalStatus := constants.JobStatusCompleted
	if needsReview {
		finalStatus = constants.JobStatusManualReview
	}

	parseJSON, err := json.Marshal(validation.Normalized)
	if err != nil {
		return fmt.Errorf("%w: marshal parse result: %v", common.ErrPipeline, err)
	}
	validationJSON, err := json.Marshal(validation)
	if err != nil {
		return fmt.Errorf("%w: marshal validation result: %v", common.ErrPipeline, err)
	}

	outcome := repository.ParseOutcome{
		DocumentType:     string(classification.Type),
		Confidence:       record.Confidence,
		NeedsReview:      needsReview,
		ParseResult:      parseJSON,
		ValidationResult: validationJSON,
	}
	if err := o.jobs.FinishSuccess(ctx, job.ID, finalStatus, outcome); err != nil {
		return err
	}
	if err := o.docs.UpdateStatus(ctx, doc.ID, finalStatus); err != nil {
		return err
	}

	log.Info("pipeline run finished",
		"status", finalStatus, "document_type", classification.Type,
		"confidence", record.Confidence, "needs_review", needsReview,
		"method", extracted.Method)
	return nil
}

// transition advances both the job and the document through the state
// machine, rejecting moves the machine does not allow.
func (o *Orchestrator) transition(ctx context.Context, doc *entity.Document, job *entity.PipelineJob, next constants.JobStatus) error {
	if !constants.CanTransition(job.Status, next) {
		return fmt.Errorf("%w: illegal transition %s -> %s", common.ErrPipeline, job.Status, next)
	}
	ctx, cancel := common.WithTimeout(ctx, o.cfg.StageTimeout)
	defer cancel()
	if err := o.jobs.UpdateStatus(ctx, job.ID, next); err != nil {
		return err
	}
	if err := o.docs.UpdateStatus(ctx, doc.ID, next); err != nil {
		return err
	}
	job.Status = next
	return nil
}

func (o *Orchestrator) saveExtraction(ctx context.Context, documentID uuid.UUID, res textract.Result) error {
	stored := &entity.ExtractionResult{
		ID:         uuid.New(),
		DocumentID: documentID,
		Text:       res.Text,
		TextLength: len(res.Text),
		Method:     res.Method,
		Pages:      res.Pages,
		DurationMs: res.Duration.Milliseconds(),
		Current:    true,
		CreatedAt:  time.Now().UTC(),
	}
	if res.OCRConfidence > 0 {
		conf := res.OCRConfidence
		stored.OCRConfidence = &conf
	}
	return o.results.Save(ctx, stored)
}

// Status is the externally visible processing state of a document.
type Status struct {
	DocumentID         uuid.UUID             `json:"document_id"`
	Filename           string                `json:"filename"`
	ContentType        constants.ContentType `json:"content_type"`
	FileSize           int                   `json:"file_size"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	JobID              *uuid.UUID            `json:"job_id,omitempty"`
	Status             constants.JobStatus   `json:"status"`
	DocumentType       *string               `json:"document_type,omitempty"`
	Confidence         *float32              `json:"confidence,omitempty"`
	NeedsReview        bool                  `json:"needs_review"`
	LastError          *string               `json:"last_error,omitempty"`
	ManualConfirmation bool                  `json:"manual_confirmation"`
	CompletedAt        *time.Time            `json:"completed_at,omitempty"`
	Extraction         *ExtractionSummary    `json:"extraction,omitempty"`
}

// ExtractionSummary condenses the current extraction run for status reports.
type ExtractionSummary struct {
	Method        string    `json:"method"`
	TextLength    int       `json:"text_length"`
	Pages         int       `json:"pages"`
	OCRConfidence *float32  `json:"ocr_confidence,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// GetStatus reports a document's stored metadata, its latest job, and a
// summary of the current extraction run. A document that never entered the
// pipeline reports its own stored status with no job or extraction fields.
func (o *Orchestrator) GetStatus(ctx context.Context, documentID uuid.UUID) (*Status, error) {
	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	job, err := o.jobs.GetLatest(ctx, documentID)
	if err != nil {
		return nil, err
	}
	st := &Status{
		DocumentID:  documentID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		FileSize:    doc.FileSize,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		Status:      doc.Status,
	}
	if res, err := o.results.GetCurrent(ctx, documentID); err == nil && res != nil {
		st.Extraction = &ExtractionSummary{
			Method:        res.Method,
			TextLength:    res.TextLength,
			Pages:         res.Pages,
			OCRConfidence: res.OCRConfidence,
			ProcessedAt:   res.CreatedAt,
		}
	}
	if job == nil {
		return st, nil
	}
	st.JobID = &job.ID
	st.Status = job.Status
	st.DocumentType = job.DocumentType
	st.Confidence = job.Confidence
	st.NeedsReview = job.NeedsReview
	st.LastError = job.LastError
	st.ManualConfirmation = job.ManuallyConfirmed()
	st.CompletedAt = job.CompletedAt
	return st, nil
}

// ProcessManualReview accepts a reviewer-corrected payload for a document
// whose latest job is parked in MANUAL_REVIEW. The payload must match the
// confirmation schema for the job's document type and is stored verbatim.
func (o *Orchestrator) ProcessManualReview(ctx context.Context, documentID uuid.UUID, payload json.RawMessage) error {
	if _, err := o.docs.GetByID(ctx, documentID); err != nil {
		return err
	}
	job, err := o.jobs.GetLatest(ctx, documentID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: document %s has no job awaiting review", common.ErrInvalidInput, documentID)
	}
	if job.Status != constants.JobStatusManualReview {
		return fmt.Errorf("%w: job %s is in status %s, not %s",
			common.ErrInvalidInput, job.ID, job.Status, constants.JobStatusManualReview)
	}
	docType := constants.TypeOther
	if job.DocumentType != nil {
		docType = constants.DocumentType(*job.DocumentType)
	}
	if err := o.validateConfirmPayload(docType, payload); err != nil {
		return err
	}
	if err := o.jobs.Confirm(ctx, job.ID, payload); err != nil {
		return err
	}
	if err := o.docs.UpdateStatus(ctx, documentID, constants.JobStatusConfirmed); err != nil {
		return err
	}
	o.logger.Info("manual review confirmed", "job_id", job.ID, "document_id", documentID, "document_type", docType)
	return nil
}

// PreviewResult is the outcome of a dry run. Nothing is persisted.
type PreviewResult struct {
	ContentType    constants.ContentType  `json:"content_type"`
	Method         string                 `json:"method"`
	TextLength     int                    `json:"text_length"`
	LikelyScanned  bool                   `json:"likely_scanned"`
	Classification classify.Classification `json:"classification"`
	Record         fields.Record          `json:"record"`
	Validation     *validate.Result       `json:"validation"`
	NeedsReview    bool                   `json:"needs_review"`
}

// Preview runs detection, extraction, classification, and validation over
// raw bytes without touching storage or the database.
func (o *Orchestrator) Preview(ctx context.Context, filename string, data []byte) (*PreviewResult, error) {
	contentType := detect.Detect(filename, "", data)
	if contentType == constants.Unknown {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedDocument, filename)
	}

	workDir, err := os.MkdirTemp("", "docintake-preview-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create work dir: %v", common.ErrPipeline, err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	path := filepath.Join(workDir, "input"+filepath.Ext(filename))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: stage input file: %v", common.ErrPipeline, err)
	}

	extractCtx, cancel := common.WithTimeout(ctx, o.cfg.ExtractTimeout)
	extracted, err := o.extractor.Extract(extractCtx, path, contentType)
	cancel()
	if err != nil {
		return nil, err
	}

	classification := o.classifier.Classify(extracted.Text)
	extractor, err := o.registry.ForType(classification.Type)
	if err != nil {
		return nil, err
	}
	record, err := extractor.Extract(extracted.Text)
	if err != nil {
		return nil, err
	}
	validation, err := o.validator.Validate(record)
	if err != nil {
		return nil, err
	}

	return &PreviewResult{
		ContentType:    contentType,
		Method:         extracted.Method,
		TextLength:     len(extracted.Text),
		LikelyScanned:  extracted.LikelyScanned,
		Classification: classification,
		Record:         *validation.Normalized,
		Validation:     validation,
		NeedsReview: !validation.IsValid ||
			record.Confidence < o.cfg.MinConfidence ||
			classification.Confidence < ambiguityThreshold,
	}, nil
}

// IsRetryable reports whether a failed run may be retried by starting a new
// job. Unsupported formats never become retryable.
func IsRetryable(err error) bool {
	return !errors.Is(err, common.ErrUnsupportedDocument) && !errors.Is(err, common.ErrInvalidInput)
}
