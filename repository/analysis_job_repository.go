package repository

import (
	"context"
	"fmt"
	"time"

	"clauseguard-backend/models"

	"github.com/google/uuid"
)

// AnalysisJobRepository handles database operations for analysis jobs
type AnalysisJobRepository struct {
	db DBTX
}

// NewAnalysisJobRepository creates a new analysis job repository
func NewAnalysisJobRepository(db DBTX) *AnalysisJobRepository {
	return &AnalysisJobRepository{db: db}
}

const jobColumns = `id, document_id, status, current_step, steps, recommendation_limit,
			clause_count, dropped_count, truncated_count, recommendation_count,
			error_message, created_at, updated_at, completed_at`

func scanJob(row interface{ Scan(dest ...any) error }) (*models.AnalysisJob, error) {
	job := &models.AnalysisJob{}
	err := row.Scan(
		&job.ID,
		&job.DocumentID,
		&job.Status,
		&job.CurrentStep,
		&job.Steps,
		&job.Limit,
		&job.ClauseCount,
		&job.DroppedCount,
		&job.TruncatedCount,
		&job.RecommendationCount,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	// Ensure Steps is never nil
	if job.Steps == nil {
		job.Steps = make(models.AnalysisSteps, 0)
	}
	return job, nil
}

// Create creates a new analysis job
func (r *AnalysisJobRepository) Create(ctx context.Context, job *models.AnalysisJob) error {
	query := `
		INSERT INTO analysis_jobs (
			document_id, status, current_step, steps, recommendation_limit, error_message
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		job.DocumentID,
		job.Status,
		job.CurrentStep,
		job.Steps,
		job.Limit,
		job.ErrorMessage,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis job: %w", err)
	}

	return nil
}

// GetByID retrieves an analysis job by ID
func (r *AnalysisJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM analysis_jobs
		WHERE id = $1`

	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return job, nil
}

// GetLatestByDocumentID retrieves the latest analysis job for a document
func (r *AnalysisJobRepository) GetLatestByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.AnalysisJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM analysis_jobs
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	job, err := scanJob(r.db.QueryRow(ctx, query, documentID))
	if err != nil {
		return nil, notFound(err)
	}
	return job, nil
}

// UpdateStatus updates the status of an analysis job
func (r *AnalysisJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisJobStatus) error {
	query := `
		UPDATE analysis_jobs SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateProgress updates the progress of an analysis job
func (r *AnalysisJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, currentStep string, steps models.AnalysisSteps) error {
	query := `
		UPDATE analysis_jobs SET
			current_step = $2,
			steps = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, currentStep, steps)
	return err
}

// Complete marks an analysis job as completed and records its counts
func (r *AnalysisJobRepository) Complete(ctx context.Context, job *models.AnalysisJob) error {
	now := time.Now()
	query := `
		UPDATE analysis_jobs SET
			status = $2,
			clause_count = $3,
			dropped_count = $4,
			truncated_count = $5,
			recommendation_count = $6,
			completed_at = $7,
			updated_at = $7
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query,
		job.ID,
		models.JobStatusCompleted,
		job.ClauseCount,
		job.DroppedCount,
		job.TruncatedCount,
		job.RecommendationCount,
		now,
	)
	if err != nil {
		return err
	}
	job.Status = models.JobStatusCompleted
	job.CompletedAt = &now
	return nil
}

// Fail marks an analysis job as failed
func (r *AnalysisJobRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE analysis_jobs SET
			status = $2,
			error_message = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.JobStatusFailed, errorMessage)
	return err
}
