package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clauseguard-backend/logging"
	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
	"clauseguard-backend/repository"

	"github.com/google/uuid"
)

// DefaultJobTimeout bounds one background analysis
const DefaultJobTimeout = 3 * time.Minute

// Analysis job step names
const (
	StepExtractingClauses         = "Extracting Clauses"
	StepLoadingReferences         = "Loading References"
	StepGeneratingRecommendations = "Generating Recommendations"
	StepSavingResults             = "Saving Results"
)

// AnalysisService runs the clause pipeline over stored documents as
// background jobs, and synchronously over ad-hoc clause lists.
type AnalysisService struct {
	documentRepo       DocumentRepository
	jobRepo            AnalysisJobRepository
	recommendationRepo RecommendationRepository
	references         pipeline.ReferenceSource
	pipeline           *pipeline.Pipeline
	jobTimeout         time.Duration
	observer           JobObserver
	logger             logging.Logger
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithDocumentRepository sets the document repository
func AnalysisWithDocumentRepository(repo DocumentRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.documentRepo = repo
	}
}

// AnalysisWithJobRepository sets the analysis job repository
func AnalysisWithJobRepository(repo AnalysisJobRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.jobRepo = repo
	}
}

// AnalysisWithRecommendationRepository sets the recommendation repository
func AnalysisWithRecommendationRepository(repo RecommendationRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.recommendationRepo = repo
	}
}

// AnalysisWithReferences sets the reference clause source
func AnalysisWithReferences(src pipeline.ReferenceSource) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.references = src
	}
}

// AnalysisWithPipeline sets the clause pipeline
func AnalysisWithPipeline(p *pipeline.Pipeline) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if p != nil {
			s.pipeline = p
		}
	}
}

// AnalysisWithJobTimeout sets the deadline for one background job
func AnalysisWithJobTimeout(d time.Duration) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// AnalysisWithJobObserver sets the job outcome observer
func AnalysisWithJobObserver(o JobObserver) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if o != nil {
			s.observer = o
		}
	}
}

// AnalysisWithLogger sets the logger
func AnalysisWithLogger(l logging.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		pipeline:   pipeline.New(),
		jobTimeout: DefaultJobTimeout,
		observer:   nopJobObserver{},
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartAnalysisRequest represents a request to analyze a stored document
type StartAnalysisRequest struct {
	DocumentID uuid.UUID
	Limit      int // zero uses the pipeline default
}

// StartAnalysisResult represents the created job
type StartAnalysisResult struct {
	JobID uuid.UUID
}

// GetJobStatusRequest represents a request to get job status
type GetJobStatusRequest struct {
	JobID uuid.UUID
}

// GetJobStatusResult represents the result of getting job status
type GetJobStatusResult struct {
	Job *models.AnalysisJob
}

// GetRecommendationsResult holds a document's stored recommendations and
// the job that produced the most recent analysis, if any.
type GetRecommendationsResult struct {
	Recommendations []models.StoredRecommendation
	LatestJob       *models.AnalysisJob
}

// AnalyzeRequest represents a synchronous analysis. Text is split into
// clauses when Clauses is empty.
type AnalyzeRequest struct {
	Clauses []models.Clause
	Text    string
	Limit   int
}

// StartAnalysis validates the document and creates a pending job. The caller
// runs ProcessAnalysis in the background.
func (s *AnalysisService) StartAnalysis(ctx context.Context, req StartAnalysisRequest) (*StartAnalysisResult, error) {
	if s.documentRepo == nil {
		return nil, errors.New("document repository not set")
	}
	if s.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", req.Limit)
	}

	doc, err := s.documentRepo.GetByID(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	if len(doc.Clauses) == 0 && (doc.ExtractedText == nil || strings.TrimSpace(*doc.ExtractedText) == "") {
		return nil, ErrNoExtractableText
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.pipeline.Limit()
	}

	job := &models.AnalysisJob{
		DocumentID: req.DocumentID,
		Status:     models.JobStatusPending,
		Steps:      initializeSteps(),
		Limit:      limit,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		s.logger.Error("failed to create analysis job",
			logging.String("document_id", req.DocumentID.String()),
			logging.Err(err),
		)
		return nil, ErrJobCreationFailed
	}

	return &StartAnalysisResult{JobID: job.ID}, nil
}

// GetJobStatus retrieves the status of an analysis job
func (s *AnalysisService) GetJobStatus(ctx context.Context, req GetJobStatusRequest) (*GetJobStatusResult, error) {
	if s.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	return &GetJobStatusResult{Job: job}, nil
}

// GetRecommendations returns the stored recommendations of a document in rank order
func (s *AnalysisService) GetRecommendations(ctx context.Context, documentID uuid.UUID) (*GetRecommendationsResult, error) {
	if s.documentRepo == nil || s.recommendationRepo == nil || s.jobRepo == nil {
		return nil, errors.New("analysis repositories not set")
	}

	if _, err := s.documentRepo.GetByID(ctx, documentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	recs, err := s.recommendationRepo.ListByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	res := &GetRecommendationsResult{Recommendations: recs}
	job, err := s.jobRepo.GetLatestByDocumentID(ctx, documentID)
	switch {
	case err == nil:
		res.LatestJob = job
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return res, nil
}

// References returns the configured reference clause set
func (s *AnalysisService) References(ctx context.Context) ([]models.ReferenceClause, error) {
	if s.references == nil {
		return nil, errors.New("reference source not set")
	}
	refs, err := s.references.References(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferencesFailed, err)
	}
	return refs, nil
}

// Analyze runs the pipeline synchronously over the request's clauses
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*pipeline.Result, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", req.Limit)
	}

	clauses := req.Clauses
	if len(clauses) == 0 && strings.TrimSpace(req.Text) != "" {
		clauses = pipeline.Split(req.Text)
	}

	refs, err := s.References(ctx)
	if err != nil {
		return nil, err
	}

	return s.pipelineFor(req.Limit).Run(ctx, clauses, refs)
}

// ProcessAnalysis performs the analysis work for a job. It runs in a
// goroutine and records failures on the job rather than returning them to
// an HTTP client.
func (s *AnalysisService) ProcessAnalysis(ctx context.Context, jobID uuid.UUID) error {
	if s.jobRepo == nil {
		return errors.New("analysis job repository not set")
	}
	if s.documentRepo == nil {
		return errors.New("document repository not set")
	}
	if s.recommendationRepo == nil {
		return errors.New("recommendation repository not set")
	}

	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	start := time.Now()
	logger := s.logger.With(logging.String("job_id", jobID.String()))

	// 1. Load job and document
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load analysis job: %w", err)
	}

	// Failures are recorded even after the job deadline has passed.
	fail := func(step string, err error) error {
		failCtx := context.WithoutCancel(ctx)
		msg := err.Error()
		if step != "" {
			msg = step + ": " + msg
			if stepErr := s.updateStepStatus(failCtx, job, step, models.StepFailed); stepErr != nil {
				logger.Warn("failed to mark step failed", logging.String("step", step), logging.Err(stepErr))
			}
		}
		s.markJobFailed(failCtx, job.ID, job.DocumentID, msg)
		s.observer.ObserveJob(models.JobStatusFailed, time.Since(start))
		logger.Error("analysis job failed", logging.String("step", step), logging.Err(err))
		return err
	}

	doc, err := s.documentRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		return fail("", fmt.Errorf("failed to load document: %w", err))
	}

	// 2. Update job status to in_progress
	if err := s.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return fail("", fmt.Errorf("failed to update job status: %w", err))
	}
	if err := s.documentRepo.UpdateStatus(ctx, doc.ID, models.DocumentStatusAnalyzing); err != nil {
		logger.Warn("failed to update document status", logging.Err(err))
	}

	// 3. Clauses: stored candidates, otherwise split the extracted text
	if err := s.updateStepStatus(ctx, job, StepExtractingClauses, models.StepInProgress); err != nil {
		return fail(StepExtractingClauses, err)
	}
	clauses := []models.Clause(doc.Clauses)
	if len(clauses) == 0 && doc.ExtractedText != nil {
		clauses = pipeline.Split(*doc.ExtractedText)
	}
	if len(clauses) == 0 {
		return fail(StepExtractingClauses, ErrNoExtractableText)
	}
	if err := s.updateStepStatus(ctx, job, StepExtractingClauses, models.StepCompleted); err != nil {
		return fail(StepExtractingClauses, err)
	}

	// 4. Reference set
	if err := s.updateStepStatus(ctx, job, StepLoadingReferences, models.StepInProgress); err != nil {
		return fail(StepLoadingReferences, err)
	}
	refs, err := s.References(ctx)
	if err != nil {
		return fail(StepLoadingReferences, err)
	}
	if err := s.updateStepStatus(ctx, job, StepLoadingReferences, models.StepCompleted); err != nil {
		return fail(StepLoadingReferences, err)
	}

	// 5. Classify, match, rank and recommend
	if err := s.updateStepStatus(ctx, job, StepGeneratingRecommendations, models.StepInProgress); err != nil {
		return fail(StepGeneratingRecommendations, err)
	}
	result, err := s.pipelineFor(job.Limit).Run(ctx, clauses, refs)
	if err != nil {
		return fail(StepGeneratingRecommendations, err)
	}
	if len(result.Recommendations) == 0 {
		logger.Warn("analysis produced no recommendations",
			logging.Int("clauses", result.Input),
			logging.Int("dropped", result.Dropped),
			logging.Int("references", len(refs)),
		)
	}
	if err := s.updateStepStatus(ctx, job, StepGeneratingRecommendations, models.StepCompleted); err != nil {
		return fail(StepGeneratingRecommendations, err)
	}

	// 6. Store results
	if err := s.updateStepStatus(ctx, job, StepSavingResults, models.StepInProgress); err != nil {
		return fail(StepSavingResults, err)
	}
	if err := s.recommendationRepo.ReplaceForDocument(ctx, doc.ID, job.ID, result.Recommendations); err != nil {
		return fail(StepSavingResults, fmt.Errorf("failed to store recommendations: %w", err))
	}
	if err := s.documentRepo.MarkAnalyzed(ctx, doc.ID); err != nil {
		return fail(StepSavingResults, fmt.Errorf("failed to update document: %w", err))
	}
	if err := s.updateStepStatus(ctx, job, StepSavingResults, models.StepCompleted); err != nil {
		return fail(StepSavingResults, err)
	}

	// 7. Mark job as completed
	job.ClauseCount = result.Input
	job.DroppedCount = result.Dropped
	job.TruncatedCount = result.Truncated
	job.RecommendationCount = len(result.Recommendations)
	if err := s.jobRepo.Complete(ctx, job); err != nil {
		return fail("", fmt.Errorf("failed to complete job: %w", err))
	}

	elapsed := time.Since(start)
	s.observer.ObserveJob(models.JobStatusCompleted, elapsed)
	logger.Info("analysis job completed",
		logging.String("document_id", doc.ID.String()),
		logging.Int("recommendations", job.RecommendationCount),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

func (s *AnalysisService) pipelineFor(limit int) *pipeline.Pipeline {
	if limit > 0 && limit != s.pipeline.Limit() {
		return s.pipeline.WithRunLimit(limit)
	}
	return s.pipeline
}

// initializeSteps creates the analysis steps in execution order
func initializeSteps() models.AnalysisSteps {
	return models.AnalysisSteps{
		{Name: StepExtractingClauses, Status: models.StepPending},
		{Name: StepLoadingReferences, Status: models.StepPending},
		{Name: StepGeneratingRecommendations, Status: models.StepPending},
		{Name: StepSavingResults, Status: models.StepPending},
	}
}

// updateStepStatus updates one step on the in-memory job and persists the progress
func (s *AnalysisService) updateStepStatus(ctx context.Context, job *models.AnalysisJob, stepName, status string) error {
	currentStep := ""
	if job.CurrentStep != nil {
		currentStep = *job.CurrentStep
	}

	for i := range job.Steps {
		if job.Steps[i].Name == stepName {
			job.Steps[i].Status = status
			if status == models.StepInProgress {
				currentStep = stepName
			}
			break
		}
	}
	job.CurrentStep = &currentStep

	return s.jobRepo.UpdateProgress(ctx, job.ID, currentStep, job.Steps)
}

// markJobFailed marks a job and its document as failed
func (s *AnalysisService) markJobFailed(ctx context.Context, jobID, documentID uuid.UUID, errorMessage string) {
	if err := s.jobRepo.Fail(ctx, jobID, errorMessage); err != nil {
		s.logger.Error("failed to mark job failed", logging.String("job_id", jobID.String()), logging.Err(err))
	}
	if documentID == uuid.Nil {
		return
	}
	if err := s.documentRepo.UpdateStatus(ctx, documentID, models.DocumentStatusFailed); err != nil {
		s.logger.Warn("failed to mark document failed", logging.String("document_id", documentID.String()), logging.Err(err))
	}
}
