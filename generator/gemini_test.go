package generator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clauseguard-backend/logging"
	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
)

type fakeReply struct {
	text string
	err  error
}

// fakeModel replays canned replies and records the parts it was sent.
type fakeModel struct {
	mu      sync.Mutex
	replies []fakeReply
	calls   [][]genai.Part
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, parts)
	if len(f.replies) == 0 {
		return nil, errors.New("no more replies")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return textResponse(r.text), nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content:      &genai.Content{Parts: []genai.Part{genai.Text(text)}},
		}},
	}
}

func testCaller(model contentGenerator) caller {
	return caller{
		model:          model,
		maxRetries:     3,
		initialBackoff: time.Millisecond,
		logger:         logging.NewNopLogger(),
	}
}

func sampleBatch() []pipeline.GenerationRequest {
	return []pipeline.GenerationRequest{
		{ID: "0", ClauseType: models.ClauseTypeLimitationOfLiability, OriginalText: "Liability is unlimited.", ReferenceText: "Liability is capped."},
		{ID: "1", ClauseType: models.ClauseTypeTermination, OriginalText: "Vendor may terminate at will.", ReferenceText: "Either party may terminate on notice."},
	}
}

const validReply = `[
  {"id": "0", "riskLevel": "high", "explanation": "Uncapped exposure.", "suggestion": "Each party's liability is capped."},
  {"id": "1", "riskLevel": "medium", "explanation": "One-sided exit.", "suggestion": "Either party may terminate on 60 days notice."}
]`

func TestGemini_Generate(t *testing.T) {
	model := &fakeModel{replies: []fakeReply{{text: validReply}}}
	g := &Gemini{caller: testCaller(model)}

	results, err := g.Generate(context.Background(), sampleBatch())

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "0", results[0].ID)
	assert.Equal(t, models.RiskHigh, results[0].RiskLevel)
	assert.Equal(t, "Either party may terminate on 60 days notice.", results[1].Suggestion)

	require.Len(t, model.calls, 1)
	prompt, ok := model.calls[0][0].(genai.Text)
	require.True(t, ok)
	assert.Contains(t, string(prompt), "Liability is unlimited.")
	assert.Contains(t, string(prompt), "Either party may terminate on notice.")
	assert.Contains(t, string(prompt), "Limitation of Liability")
	assert.Contains(t, string(prompt), "Return exactly 2 objects")
}

func TestGemini_StripsCodeFence(t *testing.T) {
	model := &fakeModel{replies: []fakeReply{{text: "```json\n" + validReply + "\n```"}}}
	g := &Gemini{caller: testCaller(model)}

	results, err := g.Generate(context.Background(), sampleBatch())

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestGemini_RetriesTransportErrors(t *testing.T) {
	model := &fakeModel{replies: []fakeReply{
		{err: errors.New("connection reset")},
		{text: "   "},
		{text: validReply},
	}}
	g := &Gemini{caller: testCaller(model)}

	results, err := g.Generate(context.Background(), sampleBatch())

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Len(t, model.calls, 3)
}

func TestGemini_GivesUpAfterMaxRetries(t *testing.T) {
	model := &fakeModel{replies: []fakeReply{
		{err: errors.New("unavailable")},
		{err: errors.New("unavailable")},
		{err: errors.New("unavailable")},
	}}
	g := &Gemini{caller: testCaller(model)}

	_, err := g.Generate(context.Background(), sampleBatch())

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Len(t, model.calls, 3)
}

func TestGemini_BlockedPromptIsNotRetried(t *testing.T) {
	blocked := &genai.BlockedError{PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety}}
	model := &fakeModel{replies: []fakeReply{{err: blocked}, {text: validReply}}}
	g := &Gemini{caller: testCaller(model)}

	_, err := g.Generate(context.Background(), sampleBatch())

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Len(t, model.calls, 1)
}

func TestGemini_MalformedJSON(t *testing.T) {
	model := &fakeModel{replies: []fakeReply{{text: "Here are your clauses!"}}}
	g := &Gemini{caller: testCaller(model)}

	_, err := g.Generate(context.Background(), sampleBatch())

	assert.ErrorIs(t, err, ErrMalformedJSON)
}

func TestGemini_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &fakeModel{replies: []fakeReply{{err: errors.New("unavailable")}, {text: validReply}}}
	c := testCaller(model)
	c.initialBackoff = time.Hour
	g := &Gemini{caller: c}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := g.Generate(ctx, sampleBatch())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, model.calls, 1)
}

func TestGemini_EmptyBatch(t *testing.T) {
	model := &fakeModel{}
	g := &Gemini{caller: testCaller(model)}

	results, err := g.Generate(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, model.calls)
}

func TestGemini_DrivesEngine(t *testing.T) {
	model := &fakeModel{replies: []fakeReply{{text: validReply}}}
	engine := pipeline.NewEngine(pipeline.WithGenerator(&Gemini{caller: testCaller(model)}))
	pairs := []models.MatchedPair{
		{Clause: models.Clause{Content: "Liability is unlimited.", Type: models.ClauseTypeLimitationOfLiability}, Reference: models.ReferenceClause{Content: "cap"}, Confidence: models.ConfidenceExact},
		{Clause: models.Clause{Content: "Vendor may terminate at will.", Type: models.ClauseTypeTermination, Position: 1}, Reference: models.ReferenceClause{Content: "notice"}, Confidence: models.ConfidenceExact},
	}

	recs, err := engine.Recommend(context.Background(), pairs)

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, models.SourceGenerated, recs[0].Source)
	assert.Equal(t, "Each party's liability is capped.", recs[0].Suggestion)
}

func TestResponseText_NoCandidates(t *testing.T) {
	c := testCaller(nil)
	_, err := c.responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
	_, err = c.responseText(nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
