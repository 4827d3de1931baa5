package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/classify"
	"github.com/talahq/docintake/internal/common"
	"github.com/talahq/docintake/internal/entity"
	"github.com/talahq/docintake/internal/fields"
	"github.com/talahq/docintake/internal/repository"
	"github.com/talahq/docintake/internal/storage"
	"github.com/talahq/docintake/internal/textract"
	"github.com/talahq/docintake/internal/validate"
)

// ---- in-memory fakes ----

type fakeStore struct {
	files map[string][]byte
}

func (s *fakeStore) FetchBytes(_ context.Context, ref string) ([]byte, error) {
	data, ok := s.files[ref]
	if !ok {
		return nil, common.ErrDocumentNotFound
	}
	return data, nil
}
func (s *fakeStore) Name() string { return "fake" }

type fakeDocs struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*entity.Document
}

func newFakeDocs() *fakeDocs { return &fakeDocs{docs: map[uuid.UUID]*entity.Document{}} }

func (r *fakeDocs) add(filename, ref string) *entity.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &entity.Document{
		ID:          uuid.New(),
		Filename:    filename,
		ContentType: constants.MapExtToContentType(filename[len(filename)-4:]),
		StorageRef:  ref,
		Status:      constants.JobStatusUploaded,
		CreatedAt:   time.Now(),
	}
	r.docs[d.ID] = d
	return d
}

func (r *fakeDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, common.ErrDocumentNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocs) GetByHash(context.Context, []byte) (*entity.Document, error) {
	return nil, common.ErrDocumentNotFound
}

func (r *fakeDocs) Create(_ context.Context, filename string, ct constants.ContentType, ref string, size int, hash []byte, cat constants.Category) (*entity.Document, error) {
	d := r.add(filename, ref)
	d.ContentType = ct
	return d, nil
}

func (r *fakeDocs) UpsertByHash(ctx context.Context, filename string, ct constants.ContentType, ref string, size int, hash []byte, cat constants.Category) (*entity.Document, bool, error) {
	d, err := r.Create(ctx, filename, ct, ref, size, hash, cat)
	return d, true, err
}

func (r *fakeDocs) UpdateStatus(_ context.Context, id uuid.UUID, status constants.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[id].Status = status
	return nil
}

func (r *fakeDocs) UpdateContentType(_ context.Context, id uuid.UUID, ct constants.ContentType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[id].ContentType = ct
	return nil
}

func (r *fakeDocs) ListByStatus(context.Context, constants.JobStatus, int) ([]*entity.Document, error) {
	return nil, nil
}

func (r *fakeDocs) ListCreatedBetween(context.Context, *time.Time, *time.Time) ([]*entity.Document, error) {
	return nil, nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.PipelineJob
}

func newFakeJobs() *fakeJobs { return &fakeJobs{jobs: map[uuid.UUID]*entity.PipelineJob{}} }

func (r *fakeJobs) Start(_ context.Context, documentID uuid.UUID) (*entity.PipelineJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := &entity.PipelineJob{
		ID:         uuid.New(),
		DocumentID: documentID,
		Status:     constants.JobStatusUploaded,
		StartedAt:  time.Now(),
	}
	r.jobs[j.ID] = j
	cp := *j
	return &cp, nil
}

func (r *fakeJobs) GetByID(_ context.Context, jobID uuid.UUID) (*entity.PipelineJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, common.ErrDocumentNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobs) GetActive(_ context.Context, documentID uuid.UUID) (*entity.PipelineJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.DocumentID == documentID && j.Status.IsActive() {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeJobs) GetLatest(_ context.Context, documentID uuid.UUID) (*entity.PipelineJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entity.PipelineJob
	for _, j := range r.jobs {
		if j.DocumentID != documentID {
			continue
		}
		if latest == nil || j.StartedAt.After(latest.StartedAt) {
			latest = j
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeJobs) UpdateStatus(_ context.Context, jobID uuid.UUID, status constants.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[jobID].Status = status
	return nil
}

func (r *fakeJobs) FinishSuccess(_ context.Context, jobID uuid.UUID, status constants.JobStatus, outcome repository.ParseOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[jobID]
	now := time.Now()
	j.Status = status
	j.CompletedAt = &now
	j.DocumentType = &outcome.DocumentType
	j.Confidence = &outcome.Confidence
	j.NeedsReview = outcome.NeedsReview
	j.ParseResult = outcome.ParseResult
	j.ValidationResult = outcome.ValidationResult
	return nil
}

func (r *fakeJobs) FinishFailure(_ context.Context, jobID uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[jobID]
	now := time.Now()
	j.Status = constants.JobStatusError
	j.CompletedAt = &now
	j.LastError = &message
	return nil
}

func (r *fakeJobs) Confirm(_ context.Context, jobID uuid.UUID, confirmed json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[jobID]
	if j.Status != constants.JobStatusManualReview {
		return common.ErrInvalidInput
	}
	now := time.Now()
	j.Status = constants.JobStatusConfirmed
	j.CompletedAt = &now
	j.ConfirmedData = confirmed
	return nil
}

type fakeResults struct {
	mu    sync.Mutex
	saved []*entity.ExtractionResult
}

func (r *fakeResults) Save(_ context.Context, res *entity.ExtractionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, prev := range r.saved {
		if prev.DocumentID == res.DocumentID {
			prev.Current = false
		}
	}
	r.saved = append(r.saved, res)
	return nil
}

func (r *fakeResults) GetCurrent(_ context.Context, documentID uuid.UUID) (*entity.ExtractionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].DocumentID == documentID && r.saved[i].Current {
			return r.saved[i], nil
		}
	}
	return nil, common.ErrDocumentNotFound
}

// ---- fixture ----

type fixture struct {
	orch    *Orchestrator
	docs    *fakeDocs
	jobs    *fakeJobs
	results *fakeResults
	store   *fakeStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		docs:    newFakeDocs(),
		jobs:    newFakeJobs(),
		results: &fakeResults{},
		store:   &fakeStore{files: map[string][]byte{}},
	}
	f.orch = buildOrchestrator(t, f.docs, f.jobs, f.results, f.store)
	return f
}

func buildOrchestrator(t *testing.T,
	docs repository.DocumentRepository,
	jobs repository.PipelineJobRepository,
	results repository.ExtractionResultRepository,
	store storage.Backend,
) *Orchestrator {
	t.Helper()

	tables, err := classify.LoadTables()
	require.NoError(t, err)
	keywords, err := fields.LoadKeywordTables()
	require.NoError(t, err)

	cfg := common.PipelineConfig{
		MinConfidence:      0.60,
		DefaultCountryCode: "57",
		StageTimeout:       5 * time.Second,
		ExtractTimeout:     5 * time.Second,
		RunTimeout:         30 * time.Second,
	}
	extractor := textract.NewExtractor(textract.Config{}, nil, nil, nil, nil)
	registry := fields.NewRegistry(
		fields.NewCVExtractor(nil),
		fields.NewAssessmentExtractor(nil),
		fields.NewInterviewExtractor(keywords, nil),
		fields.NewOtherExtractor(),
	)
	orch, err := NewOrchestrator(cfg,
		docs, jobs, results, store,
		extractor, classify.NewClassifier(tables, nil), registry,
		validate.NewValidator(cfg.DefaultCountryCode, nil), nil)
	require.NoError(t, err)
	return orch
}

func (f *fixture) addDoc(t *testing.T, filename string, content []byte) *entity.Document {
	t.Helper()
	ref := "store/" + filename
	f.store.files[ref] = content
	d := f.docs.add(filename, ref)
	d.FileSize = len(content)
	return d
}

const cvText = `Ana María Gómez
ana.gomez@example.com | +57 301 555 1234

Work Experience
2019 - 2023 Senior Engineer
Tala Solutions S.A.S.
Built and ran the document processing platform end to end.

Education
2014 - 2018 BSc Systems Engineering
Universidad de los Andes

Skills
Go, PostgreSQL, Docker, Kubernetes
`

// ---- tests ----

func TestProcessCVToCompleted(t *testing.T) {
	f := newFixture(t)
	doc := f.addDoc(t, "cv.txt", []byte(cvText))

	job, err := f.orch.Process(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Equal(t, constants.JobStatusCompleted, job.Status)
	require.NotNil(t, job.DocumentType)
	assert.Equal(t, string(constants.TypeCV), *job.DocumentType)
	assert.False(t, job.NeedsReview)
	assert.NotNil(t, job.CompletedAt)

	// The parse result holds the normalized record.
	var rec fields.Record
	require.NoError(t, json.Unmarshal(job.ParseResult, &rec))
	require.NotNil(t, rec.CV)
	assert.Equal(t, "Ana María Gómez", rec.CV.FullName)
	assert.Equal(t, "+573015551234", rec.CV.Phone)

	// The extraction result was persisted and marked current.
	res, err := f.results.GetCurrent(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, res.Current)
	assert.Positive(t, res.TextLength)

	// The document row follows the job.
	stored, err := f.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, stored.Status)
}

func TestProcessAmbiguousDocumentParksForReview(t *testing.T) {
	f := newFixture(t)
	neutral := []byte(`Quarterly facilities report for the Bogotá office.
The cafeteria contract was renewed and the parking lot resurfacing is
scheduled for October. Buildings A and C passed inspection this cycle.`)
	doc := f.addDoc(t, "report.txt", neutral)

	job, err := f.orch.Process(context.Background(), doc.ID)
	require.NoError(t, err)

	assert.Equal(t, constants.JobStatusManualReview, job.Status)
	assert.True(t, job.NeedsReview)
	require.NotNil(t, job.DocumentType)
	assert.Equal(t, string(constants.TypeOther), *job.DocumentType)
}

func TestManualReviewConfirmFlow(t *testing.T) {
	f := newFixture(t)
	doc := f.addDoc(t, "report.txt", []byte(`Facilities memo: the elevator in building B
remains out of service; the vendor visit is booked for the second week.
No staffing changes this period, utilities within budget throughout.`))

	job, err := f.orch.Process(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, constants.JobStatusManualReview, job.Status)

	payload := json.RawMessage(`{"note": "not a candidate document"}`)
	require.NoError(t, f.orch.ProcessManualReview(context.Background(), doc.ID, payload))

	st, err := f.orch.GetStatus(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusConfirmed, st.Status)
	assert.True(t, st.ManualConfirmation)
}

func TestManualReviewRejectsWrongState(t *testing.T) {
	f := newFixture(t)
	doc := f.addDoc(t, "cv.txt", []byte(cvText))

	job, err := f.orch.Process(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, constants.JobStatusCompleted, job.Status)

	err = f.orch.ProcessManualReview(context.Background(), doc.ID, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestManualReviewUnknownDocument(t *testing.T) {
	f := newFixture(t)
	err := f.orch.ProcessManualReview(context.Background(), uuid.New(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDocumentNotFound)
}

func TestManualReviewRejectsMalformedPayload(t *testing.T) {
	f := newFixture(t)
	doc := f.addDoc(t, "report.txt", []byte(`Facilities memo: window cleaning rescheduled,
vendor badge renewals processed, garage gate maintenance completed on time.
Nothing else to report for the period under review this quarter overall.`))

	job, err := f.orch.Process(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, constants.JobStatusManualReview, job.Status)

	err = f.orch.ProcessManualReview(context.Background(), doc.ID, json.RawMessage(`"just a string"`))
	require.Error(t, err)

	// The job stays reviewable after a bad payload.
	stored, err := f.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusManualReview, stored.Status)
}

func TestProcessUnsupportedDocumentFails(t *testing.T) {
	f := newFixture(t)
	junk := []byte{0x00, 0x01, 0x02, 0xFE, 0xFF, 0x00, 0x10, 0x20}
	doc := f.addDoc(t, "blob.bin", junk)

	_, err := f.orch.Process(context.Background(), doc.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedDocument)

	job, err := f.jobs.GetLatest(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, constants.JobStatusError, job.Status)
	require.NotNil(t, job.LastError)

	stored, err := f.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusError, stored.Status)
}

func TestProcessReturnsActiveJobInsteadOfStartingAnother(t *testing.T) {
	f := newFixture(t)
	doc := f.addDoc(t, "cv.txt", []byte(cvText))

	// Simulate a run already in flight.
	active, err := f.jobs.Start(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NoError(t, f.jobs.UpdateStatus(context.Background(), active.ID, constants.JobStatusParsing))

	job, err := f.orch.Process(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, job.ID)
	assert.Len(t, f.jobs.jobs, 1, "no second job may be started")
}

// blockingDocs holds the first GetByID call open so a test can overlap a
// second Process call with a run that is already in flight.
type blockingDocs struct {
	*fakeDocs
	enter   chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingDocs) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	b.once.Do(func() {
		close(b.enter)
		<-b.release
	})
	return b.fakeDocs.GetByID(ctx, id)
}

func TestProcessConcurrentCallersShareOneJob(t *testing.T) {
	f := newFixture(t)
	doc := f.addDoc(t, "cv.txt", []byte(cvText))

	blocking := &blockingDocs{
		fakeDocs: f.docs,
		enter:    make(chan struct{}),
		release:  make(chan struct{}),
	}
	orch := buildOrchestrator(t, blocking, f.jobs, f.results, f.store)

	var (
		firstJob, secondJob *entity.PipelineJob
		firstErr, secondErr error
	)
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		firstJob, firstErr = orch.Process(context.Background(), doc.ID)
	}()
	<-blocking.enter

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		secondJob, secondErr = orch.Process(context.Background(), doc.ID)
	}()

	time.Sleep(50 * time.Millisecond)
	close(blocking.release)
	<-firstDone
	<-secondDone

	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	require.NotNil(t, firstJob)
	require.NotNil(t, secondJob)
	assert.Equal(t, firstJob.ID, secondJob.ID, "concurrent caller must receive the first job's reference")
	assert.Len(t, f.jobs.jobs, 1, "no second job may be started")
}

func TestGetStatusIncludesDocumentAndExtraction(t *testing.T) {
	f := newFixture(t)
	doc := f.addDoc(t, "cv.txt", []byte(cvText))

	_, err := f.orch.Process(context.Background(), doc.ID)
	require.NoError(t, err)

	st, err := f.orch.GetStatus(context.Background(), doc.ID)
	require.NoError(t, err)

	assert.Equal(t, "cv.txt", st.Filename)
	assert.Equal(t, constants.PlainText, st.ContentType)
	assert.Equal(t, len(cvText), st.FileSize)
	assert.False(t, st.CreatedAt.IsZero())
	assert.Equal(t, constants.JobStatusCompleted, st.Status)

	require.NotNil(t, st.Extraction)
	assert.NotEmpty(t, st.Extraction.Method)
	assert.Positive(t, st.Extraction.TextLength)
	assert.False(t, st.Extraction.ProcessedAt.IsZero())
}

func TestProcessUnknownDocument(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Process(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDocumentNotFound)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	f := newFixture(t)

	got, err := f.orch.Preview(context.Background(), "cv.txt", []byte(cvText))
	require.NoError(t, err)

	assert.Equal(t, constants.PlainText, got.ContentType)
	assert.Equal(t, constants.TypeCV, got.Classification.Type)
	require.NotNil(t, got.Record.CV)
	assert.Equal(t, "Ana María Gómez", got.Record.CV.FullName)
	assert.False(t, got.NeedsReview)

	assert.Empty(t, f.jobs.jobs, "preview must not create jobs")
	assert.Empty(t, f.results.saved, "preview must not persist extraction results")
	assert.Empty(t, f.docs.docs, "preview must not register documents")
}

func TestPreviewUnsupported(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Preview(context.Background(), "noise.bin", []byte{0x00, 0x01, 0xFF, 0xFE, 0x10})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedDocument)
}

func TestRegisterRejectsEmptyAndUnknown(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.orch.Register(context.Background(), "x.txt", "ref", nil, constants.CategoryOther)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, _, err = f.orch.Register(context.Background(), "x.bin", "ref", []byte{0x00, 0x01, 0x02, 0xFF, 0x00}, constants.CategoryOther)
	assert.ErrorIs(t, err, common.ErrUnsupportedDocument)
}
