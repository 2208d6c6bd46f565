package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clauseguard-backend/logging"
	"clauseguard-backend/models"
)

// DefaultGenerationTimeout bounds the single outbound generation call.
const DefaultGenerationTimeout = 60 * time.Second

// Engine produces one recommendation per matched pair, using the Generator
// when it answers correctly and deterministic templates otherwise.
type Engine struct {
	generator Generator
	templates TemplateProvider
	timeout   time.Duration
	logger    logging.Logger
	observer  Observer
}

// EngineOption is a functional option for Engine
type EngineOption func(*Engine)

// WithGenerator sets the generation collaborator. Without one every pair
// takes the template path.
func WithGenerator(g Generator) EngineOption {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithTemplates replaces the built-in fallback templates
func WithTemplates(p TemplateProvider) EngineOption {
	return func(e *Engine) {
		e.templates = p
	}
}

// WithGenerationTimeout sets the deadline for the generation call
func WithGenerationTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithEngineLogger sets the engine logger
func WithEngineLogger(l logging.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEngineObserver sets the measurement observer
func WithEngineObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// NewEngine creates a recommendation engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		templates: DefaultTemplates(),
		timeout:   DefaultGenerationTimeout,
		logger:    logging.NewNopLogger(),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend returns exactly one recommendation per pair, in input order.
// A failed call or a wrong result count sends every pair to the templates;
// a malformed entry in a correctly sized answer falls back for its own pair.
// It fails only when ctx is cancelled, in which case no partial list is returned.
func (e *Engine) Recommend(ctx context.Context, pairs []models.MatchedPair) ([]models.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return []models.Recommendation{}, nil
	}

	batch := buildBatch(pairs)
	results := e.generate(ctx, batch)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recs := make([]models.Recommendation, len(pairs))
	for i, pair := range pairs {
		if results != nil {
			rec, err := fromResult(pair, batch[i].ID, results[i])
			if err == nil {
				recs[i] = rec
				e.observer.ObserveRecommendation(pair.Clause.Type, rec.Source)
				continue
			}
			e.logger.Warn("discarding generated recommendation",
				logging.Int("position", pair.Clause.Position),
				logging.String("clause_type", string(pair.Clause.Type)),
				logging.Err(err),
			)
		}
		recs[i] = e.Fallback(pair)
		e.observer.ObserveRecommendation(pair.Clause.Type, recs[i].Source)
	}
	return recs, nil
}

// Fallback builds the deterministic template recommendation for a pair.
func (e *Engine) Fallback(pair models.MatchedPair) models.Recommendation {
	tpl, source := fallbackTemplate(e.templates, pair.Clause.Type)
	return models.Recommendation{
		Title:          tpl.Title,
		OriginalClause: pair.Clause.Content,
		Explanation:    tpl.Explanation,
		Suggestion:     tpl.Suggestion,
		RiskLevel:      tpl.RiskLevel,
		ClauseType:     pair.Clause.Type,
		Position:       pair.Clause.Position,
		Confidence:     pair.Confidence,
		Source:         source,
	}
}

func buildBatch(pairs []models.MatchedPair) []GenerationRequest {
	batch := make([]GenerationRequest, len(pairs))
	for i, pair := range pairs {
		batch[i] = GenerationRequest{
			ID:            strconv.Itoa(i),
			ClauseType:    pair.Clause.Type,
			OriginalText:  pair.Clause.Content,
			ReferenceText: pair.Reference.Content,
		}
	}
	return batch
}

type generation struct {
	results []GenerationResult
	err     error
}

// generate performs the batched call under the engine timeout. It returns nil
// when the call is unavailable, fails, times out or answers with the wrong
// number of results.
func (e *Engine) generate(ctx context.Context, batch []GenerationRequest) []GenerationResult {
	if e.generator == nil {
		e.observer.ObserveGeneration(OutcomeUnavailable, 0)
		return nil
	}

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan generation, 1)
	go func() {
		results, err := e.generator.Generate(genCtx, batch)
		done <- generation{results: results, err: err}
	}()

	var g generation
	select {
	case g = <-done:
	case <-genCtx.Done():
		g.err = genCtx.Err()
	}
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		// Caller cancelled; Recommend discards everything.
		return nil
	}
	if g.err != nil {
		outcome := OutcomeError
		if errors.Is(g.err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			outcome = OutcomeTimeout
		}
		e.observer.ObserveGeneration(outcome, elapsed)
		e.logger.Warn("generation failed, using fallback templates",
			logging.String("outcome", outcome),
			logging.Int("batch_size", len(batch)),
			logging.Duration("elapsed", elapsed),
			logging.Err(g.err),
		)
		return nil
	}
	if len(g.results) != len(batch) {
		e.observer.ObserveGeneration(OutcomeMalformed, elapsed)
		e.logger.Warn("generation returned wrong result count, using fallback templates",
			logging.Int("expected", len(batch)),
			logging.Int("got", len(g.results)),
			logging.Err(ErrGenerationMismatch),
		)
		return nil
	}

	e.observer.ObserveGeneration(OutcomeSuccess, elapsed)
	e.logger.Debug("generation succeeded",
		logging.Int("batch_size", len(batch)),
		logging.Duration("elapsed", elapsed),
	)
	return g.results
}

// fromResult validates one generated entry and converts it.
func fromResult(pair models.MatchedPair, requestID string, res GenerationResult) (models.Recommendation, error) {
	if res.ID != "" && res.ID != requestID {
		return models.Recommendation{}, fmt.Errorf("result id %q does not match request id %q", res.ID, requestID)
	}
	risk := models.RiskLevel(strings.ToLower(strings.TrimSpace(string(res.RiskLevel))))
	if !risk.Valid() {
		return models.Recommendation{}, fmt.Errorf("invalid risk level %q", res.RiskLevel)
	}
	explanation := strings.TrimSpace(res.Explanation)
	suggestion := strings.TrimSpace(res.Suggestion)
	if explanation == "" {
		return models.Recommendation{}, errors.New("empty explanation")
	}
	if suggestion == "" {
		return models.Recommendation{}, errors.New("empty suggestion")
	}
	return models.Recommendation{
		Title:          pair.Clause.Type.Label(),
		OriginalClause: pair.Clause.Content,
		Explanation:    explanation,
		Suggestion:     suggestion,
		RiskLevel:      risk,
		ClauseType:     pair.Clause.Type,
		Position:       pair.Clause.Position,
		Confidence:     pair.Confidence,
		Source:         models.SourceGenerated,
	}, nil
}
