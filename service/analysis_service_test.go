package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
	"clauseguard-backend/reference"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analysisFixture struct {
	docs     *memDocuments
	jobs     *memJobs
	recs     *memRecommendations
	observer *recordingJobObserver
	svc      *AnalysisService
}

func newAnalysisFixture(opts ...AnalysisServiceOption) *analysisFixture {
	f := &analysisFixture{
		docs:     newMemDocuments(),
		jobs:     newMemJobs(),
		recs:     newMemRecommendations(),
		observer: &recordingJobObserver{},
	}
	base := []AnalysisServiceOption{
		AnalysisWithDocumentRepository(f.docs),
		AnalysisWithJobRepository(f.jobs),
		AnalysisWithRecommendationRepository(f.recs),
		AnalysisWithReferences(reference.NewStatic(nil)),
		AnalysisWithJobObserver(f.observer),
	}
	f.svc = NewAnalysisService(append(base, opts...)...)
	return f
}

func (f *analysisFixture) textDocument(text string) *models.Document {
	doc := &models.Document{
		Filename:      "msa.txt",
		MimeType:      "text/plain",
		Status:        models.DocumentStatusExtracted,
		ExtractedText: &text,
		Clauses:       models.Clauses{},
	}
	f.docs.add(doc)
	return doc
}

func TestAnalysisService_StartAndProcess(t *testing.T) {
	f := newAnalysisFixture()
	doc := f.textDocument(contractText)
	ctx := context.Background()

	started, err := f.svc.StartAnalysis(ctx, StartAnalysisRequest{DocumentID: doc.ID})
	require.NoError(t, err)

	status, err := f.svc.GetJobStatus(ctx, GetJobStatusRequest{JobID: started.JobID})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, status.Job.Status)
	assert.Equal(t, pipeline.DefaultLimit, status.Job.Limit)
	require.Len(t, status.Job.Steps, 4)

	require.NoError(t, f.svc.ProcessAnalysis(ctx, started.JobID))

	status, err = f.svc.GetJobStatus(ctx, GetJobStatusRequest{JobID: started.JobID})
	require.NoError(t, err)
	job := status.Job
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.ClauseCount)
	assert.Equal(t, 3, job.RecommendationCount)
	assert.Zero(t, job.DroppedCount)
	assert.Zero(t, job.TruncatedCount)
	assert.NotNil(t, job.CompletedAt)
	for _, step := range job.Steps {
		assert.Equal(t, models.StepCompleted, step.Status, step.Name)
	}
	require.NotNil(t, job.CurrentStep)
	assert.Equal(t, StepSavingResults, *job.CurrentStep)

	assert.Equal(t, models.DocumentStatusAnalyzed, f.docs.status(doc.ID))
	assert.Equal(t, []models.AnalysisJobStatus{models.JobStatusCompleted}, f.observer.statuses)

	recs, err := f.svc.GetRecommendations(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, recs.Recommendations, 3)
	assert.Equal(t, []models.ClauseType{
		models.ClauseTypeLimitationOfLiability,
		models.ClauseTypeIndemnification,
		models.ClauseTypeTermination,
	}, []models.ClauseType{
		recs.Recommendations[0].ClauseType,
		recs.Recommendations[1].ClauseType,
		recs.Recommendations[2].ClauseType,
	})
	for i, rec := range recs.Recommendations {
		assert.Equal(t, i+1, rec.Rank)
		assert.Equal(t, models.SourceTemplate, rec.Source)
		assert.Equal(t, started.JobID, rec.JobID)
	}
	require.NotNil(t, recs.LatestJob)
	assert.Equal(t, started.JobID, recs.LatestJob.ID)
}

func TestAnalysisService_ProcessUsesStoredClauses(t *testing.T) {
	f := newAnalysisFixture()
	doc := &models.Document{
		Status: models.DocumentStatusExtracted,
		Clauses: models.Clauses{
			{Content: "This Agreement is governed by the laws of Delaware.", Type: models.ClauseTypeGoverningLaw, Position: 0},
			{Content: "Supplier warrants the services will be performed in a workmanlike manner.", Position: 1},
		},
	}
	f.docs.add(doc)

	started, err := f.svc.StartAnalysis(context.Background(), StartAnalysisRequest{DocumentID: doc.ID, Limit: 1})
	require.NoError(t, err)
	require.NoError(t, f.svc.ProcessAnalysis(context.Background(), started.JobID))

	recs, err := f.svc.GetRecommendations(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, recs.Recommendations, 1)
	assert.Equal(t, models.ClauseTypeWarranty, recs.Recommendations[0].ClauseType)
	assert.Equal(t, 1, recs.LatestJob.TruncatedCount)
}

func TestAnalysisService_StartValidation(t *testing.T) {
	f := newAnalysisFixture()
	ctx := context.Background()

	_, err := f.svc.StartAnalysis(ctx, StartAnalysisRequest{DocumentID: uuid.New()})
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	blank := f.textDocument("  ")
	_, err = f.svc.StartAnalysis(ctx, StartAnalysisRequest{DocumentID: blank.ID})
	assert.ErrorIs(t, err, ErrNoExtractableText)

	doc := f.textDocument(contractText)
	_, err = f.svc.StartAnalysis(ctx, StartAnalysisRequest{DocumentID: doc.ID, Limit: -1})
	assert.Error(t, err)

	f.jobs.createErr = errors.New("insert failed")
	_, err = f.svc.StartAnalysis(ctx, StartAnalysisRequest{DocumentID: doc.ID})
	assert.ErrorIs(t, err, ErrJobCreationFailed)
}

func TestAnalysisService_ProcessReferenceFailure(t *testing.T) {
	f := newAnalysisFixture(AnalysisWithReferences(failingReferences{}))
	doc := f.textDocument(contractText)

	started, err := f.svc.StartAnalysis(context.Background(), StartAnalysisRequest{DocumentID: doc.ID})
	require.NoError(t, err)

	err = f.svc.ProcessAnalysis(context.Background(), started.JobID)
	assert.ErrorIs(t, err, ErrReferencesFailed)

	status, err := f.svc.GetJobStatus(context.Background(), GetJobStatusRequest{JobID: started.JobID})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, status.Job.Status)
	require.NotNil(t, status.Job.ErrorMessage)
	assert.Contains(t, *status.Job.ErrorMessage, StepLoadingReferences)
	assert.Equal(t, models.StepCompleted, status.Job.Steps[0].Status)
	assert.Equal(t, models.StepFailed, status.Job.Steps[1].Status)
	assert.Equal(t, models.StepPending, status.Job.Steps[2].Status)

	assert.Equal(t, models.DocumentStatusFailed, f.docs.status(doc.ID))
	assert.Equal(t, []models.AnalysisJobStatus{models.JobStatusFailed}, f.observer.statuses)
}

func TestAnalysisService_ProcessSaveFailure(t *testing.T) {
	f := newAnalysisFixture()
	f.recs.saveErr = errors.New("deadlock detected")
	doc := f.textDocument(contractText)

	started, err := f.svc.StartAnalysis(context.Background(), StartAnalysisRequest{DocumentID: doc.ID})
	require.NoError(t, err)
	require.Error(t, f.svc.ProcessAnalysis(context.Background(), started.JobID))

	status, err := f.svc.GetJobStatus(context.Background(), GetJobStatusRequest{JobID: started.JobID})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, status.Job.Status)
	assert.Contains(t, *status.Job.ErrorMessage, "deadlock detected")
}

func TestAnalysisService_ProcessJobBookkeepingFailure(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*memJobs)
		msg   string
	}{
		{"start", func(j *memJobs) { j.statusErr = errors.New("connection reset") }, "failed to update job status"},
		{"complete", func(j *memJobs) { j.completeErr = errors.New("connection reset") }, "failed to complete job"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAnalysisFixture()
			doc := f.textDocument(contractText)

			started, err := f.svc.StartAnalysis(context.Background(), StartAnalysisRequest{DocumentID: doc.ID})
			require.NoError(t, err)
			tc.setup(f.jobs)

			err = f.svc.ProcessAnalysis(context.Background(), started.JobID)
			assert.ErrorContains(t, err, "connection reset")

			status, err := f.svc.GetJobStatus(context.Background(), GetJobStatusRequest{JobID: started.JobID})
			require.NoError(t, err)
			assert.Equal(t, models.JobStatusFailed, status.Job.Status)
			require.NotNil(t, status.Job.ErrorMessage)
			assert.Contains(t, *status.Job.ErrorMessage, tc.msg)
			assert.Equal(t, models.DocumentStatusFailed, f.docs.status(doc.ID))
			assert.Equal(t, []models.AnalysisJobStatus{models.JobStatusFailed}, f.observer.statuses)
		})
	}
}

func TestAnalysisService_ProcessTimeout(t *testing.T) {
	slow := pipeline.GeneratorFunc(func(ctx context.Context, _ []pipeline.GenerationRequest) ([]pipeline.GenerationResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	p := pipeline.New(pipeline.WithEngine(pipeline.NewEngine(pipeline.WithGenerator(slow))))
	f := newAnalysisFixture(AnalysisWithPipeline(p), AnalysisWithJobTimeout(50*time.Millisecond))
	doc := f.textDocument(contractText)

	started, err := f.svc.StartAnalysis(context.Background(), StartAnalysisRequest{DocumentID: doc.ID})
	require.NoError(t, err)

	err = f.svc.ProcessAnalysis(context.Background(), started.JobID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	status, err := f.svc.GetJobStatus(context.Background(), GetJobStatusRequest{JobID: started.JobID})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, status.Job.Status)
}

func TestAnalysisService_GetJobStatusNotFound(t *testing.T) {
	f := newAnalysisFixture()
	_, err := f.svc.GetJobStatus(context.Background(), GetJobStatusRequest{JobID: uuid.New()})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestAnalysisService_GetRecommendationsBeforeAnalysis(t *testing.T) {
	f := newAnalysisFixture()
	doc := f.textDocument(contractText)

	res, err := f.svc.GetRecommendations(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
	assert.Nil(t, res.LatestJob)

	_, err = f.svc.GetRecommendations(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestAnalysisService_Analyze(t *testing.T) {
	f := newAnalysisFixture()
	ctx := context.Background()

	res, err := f.svc.Analyze(ctx, AnalyzeRequest{Text: contractText, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Input)
	assert.Equal(t, 1, res.Truncated)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, models.ClauseTypeLimitationOfLiability, res.Recommendations[0].ClauseType)

	res, err = f.svc.Analyze(ctx, AnalyzeRequest{Clauses: []models.Clause{
		{Content: "All invoices are payable within thirty days.", Position: 0},
	}})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, models.ClauseTypePaymentTerms, res.Recommendations[0].ClauseType)

	res, err = f.svc.Analyze(ctx, AnalyzeRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)

	_, err = f.svc.Analyze(ctx, AnalyzeRequest{Text: contractText, Limit: -3})
	assert.Error(t, err)
}

func TestAnalysisService_References(t *testing.T) {
	f := newAnalysisFixture()
	refs, err := f.svc.References(context.Background())
	require.NoError(t, err)
	assert.Len(t, refs, len(reference.Seed()))

	_, err = NewAnalysisService().References(context.Background())
	assert.Error(t, err)
}
