package service

import (
	"context"
	"errors"
	"time"

	"clauseguard-backend/models"

	"github.com/google/uuid"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrJobNotFound         = errors.New("analysis job not found")
	ErrNoExtractableText   = errors.New("document contains no extractable text")
	ErrUnsupportedMimeType = errors.New("unsupported document type")
	ErrFileTooLarge        = errors.New("document exceeds maximum upload size")
	ErrExtractionFailed    = errors.New("failed to extract document text")
	ErrUploadFailed        = errors.New("failed to store document")
	ErrJobCreationFailed   = errors.New("failed to create analysis job")
	ErrReferencesFailed    = errors.New("failed to load reference clauses")
)

// DocumentRepository persists contract documents
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error
	MarkAnalyzed(ctx context.Context, id uuid.UUID) error
}

// FileRepository persists stored upload records
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.File, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnalysisJobRepository persists analysis jobs and their progress
type AnalysisJobRepository interface {
	Create(ctx context.Context, job *models.AnalysisJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error)
	GetLatestByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.AnalysisJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisJobStatus) error
	UpdateProgress(ctx context.Context, id uuid.UUID, currentStep string, steps models.AnalysisSteps) error
	Complete(ctx context.Context, job *models.AnalysisJob) error
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// RecommendationRepository persists the recommendations of finished analyses
type RecommendationRepository interface {
	ReplaceForDocument(ctx context.Context, documentID, jobID uuid.UUID, recs []models.Recommendation) error
	ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]models.StoredRecommendation, error)
}

// JobObserver receives the outcome of every processed analysis job
type JobObserver interface {
	ObserveJob(status models.AnalysisJobStatus, elapsed time.Duration)
}

type nopJobObserver struct{}

func (nopJobObserver) ObserveJob(models.AnalysisJobStatus, time.Duration) {}
