package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"clauseguard-backend/models"
	"clauseguard-backend/repository"
	"clauseguard-backend/storage"

	"github.com/google/uuid"
)

type memDocuments struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]*models.Document
	createErr error
}

func newMemDocuments() *memDocuments {
	return &memDocuments{docs: make(map[uuid.UUID]*models.Document)}
}

func (m *memDocuments) Create(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *memDocuments) GetByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *memDocuments) UpdateStatus(_ context.Context, id uuid.UUID, status models.DocumentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Status = status
	return nil
}

func (m *memDocuments) MarkAnalyzed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	doc.Status = models.DocumentStatusAnalyzed
	doc.AnalyzedAt = &now
	return nil
}

func (m *memDocuments) status(id uuid.UUID) models.DocumentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id].Status
}

func (m *memDocuments) add(doc *models.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	m.docs[doc.ID] = doc
}

type memFiles struct {
	mu        sync.Mutex
	files     map[uuid.UUID]*models.File
	createErr error
	deleted   []uuid.UUID
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[uuid.UUID]*models.File)}
}

func (m *memFiles) Create(_ context.Context, file *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	file.CreatedAt = time.Now()
	cp := *file
	m.files[file.ID] = &cp
	return nil
}

func (m *memFiles) GetByID(_ context.Context, id uuid.UUID) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFiles) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type memJobs struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*models.AnalysisJob
	createErr   error
	statusErr   error
	completeErr error
	progress    []string
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[uuid.UUID]*models.AnalysisJob)}
}

func (m *memJobs) Create(_ context.Context, job *models.AnalysisJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	job.ID = uuid.New()
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	cp := *job
	cp.Steps = append(models.AnalysisSteps(nil), job.Steps...)
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *job
	cp.Steps = append(models.AnalysisSteps(nil), job.Steps...)
	return &cp, nil
}

func (m *memJobs) GetLatestByDocumentID(_ context.Context, documentID uuid.UUID) (*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.AnalysisJob
	for _, job := range m.jobs {
		if job.DocumentID != documentID {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memJobs) UpdateStatus(_ context.Context, id uuid.UUID, status models.AnalysisJobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return m.statusErr
	}
	m.jobs[id].Status = status
	return nil
}

func (m *memJobs) UpdateProgress(_ context.Context, id uuid.UUID, currentStep string, steps models.AnalysisSteps) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[id]
	job.CurrentStep = &currentStep
	job.Steps = append(models.AnalysisSteps(nil), steps...)
	m.progress = append(m.progress, currentStep)
	return nil
}

func (m *memJobs) Complete(_ context.Context, job *models.AnalysisJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	now := time.Now()
	stored := m.jobs[job.ID]
	stored.Status = models.JobStatusCompleted
	stored.ClauseCount = job.ClauseCount
	stored.DroppedCount = job.DroppedCount
	stored.TruncatedCount = job.TruncatedCount
	stored.RecommendationCount = job.RecommendationCount
	stored.CompletedAt = &now
	job.Status = models.JobStatusCompleted
	job.CompletedAt = &now
	return nil
}

func (m *memJobs) Fail(_ context.Context, id uuid.UUID, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[id]
	job.Status = models.JobStatusFailed
	job.ErrorMessage = &errorMessage
	return nil
}

type memRecommendations struct {
	mu      sync.Mutex
	byDoc   map[uuid.UUID][]models.StoredRecommendation
	saveErr error
}

func newMemRecommendations() *memRecommendations {
	return &memRecommendations{byDoc: make(map[uuid.UUID][]models.StoredRecommendation)}
}

func (m *memRecommendations) ReplaceForDocument(_ context.Context, documentID, jobID uuid.UUID, recs []models.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	stored := make([]models.StoredRecommendation, len(recs))
	for i, rec := range recs {
		stored[i] = models.StoredRecommendation{
			ID:             uuid.New(),
			DocumentID:     documentID,
			JobID:          jobID,
			Rank:           i + 1,
			Recommendation: rec,
			CreatedAt:      time.Now(),
		}
	}
	m.byDoc[documentID] = stored
	return nil
}

func (m *memRecommendations) ListByDocumentID(_ context.Context, documentID uuid.UUID) ([]models.StoredRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.StoredRecommendation{}, m.byDoc[documentID]...), nil
}

type memStorage struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	uploadErr error
}

func newMemStorage() *memStorage {
	return &memStorage{blobs: make(map[string][]byte)}
}

func (m *memStorage) Upload(_ context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "documents/" + fileID.String() + "_" + filename
	m.blobs[path] = b
	return path, nil
}

func (m *memStorage) Download(_ context.Context, storagePath string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[storagePath]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStorage) Delete(_ context.Context, storagePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, storagePath)
	return nil
}

func (m *memStorage) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

type failingReferences struct{}

func (failingReferences) References(context.Context) ([]models.ReferenceClause, error) {
	return nil, errors.New("database unavailable")
}

type recordingJobObserver struct {
	mu       sync.Mutex
	statuses []models.AnalysisJobStatus
}

func (r *recordingJobObserver) ObserveJob(status models.AnalysisJobStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}
