package pipeline

import (
	"context"
	"fmt"
	"strings"

	"clauseguard-backend/logging"
	"clauseguard-backend/models"
)

// Result is the outcome of one pipeline run. The counts make clause loss
// observable without treating it as an error.
type Result struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	// Input is the number of clauses received, Skipped those with blank content.
	Input   int `json:"input"`
	Skipped int `json:"skipped"`
	// Matched clauses found a reference; Dropped did not.
	Matched int `json:"matched"`
	Dropped int `json:"dropped"`
	// Truncated pairs fell outside the ranking limit.
	Truncated int `json:"truncated"`
}

// Pipeline sequences classification, matching, ranking and recommendation.
// A Pipeline holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	ranker   Ranker
	engine   *Engine
	logger   logging.Logger
	observer Observer
}

// Option is a functional option for Pipeline
type Option func(*Pipeline)

// WithLimit sets the number of recommendations produced per document
func WithLimit(limit int) Option {
	return func(p *Pipeline) {
		p.ranker.Limit = limit
	}
}

// WithPriorities replaces the default priority table
func WithPriorities(table PriorityTable) Option {
	return func(p *Pipeline) {
		p.ranker.Priorities = table
	}
}

// WithEngine sets the recommendation engine
func WithEngine(e *Engine) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithLogger sets the pipeline logger
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver sets the measurement observer
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// New creates a pipeline. Without WithEngine it recommends from templates only.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		ranker:   NewRanker(DefaultLimit),
		logger:   logging.NewNopLogger(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		p.engine = NewEngine(WithEngineLogger(p.logger), WithEngineObserver(p.observer))
	}
	return p
}

// Limit returns the effective recommendation cap.
func (p *Pipeline) Limit() int {
	return p.ranker.limit()
}

// WithRunLimit returns a copy of the pipeline using a different limit for
// callers that ask for more or fewer recommendations.
func (p *Pipeline) WithRunLimit(limit int) *Pipeline {
	clone := *p
	clone.ranker.Limit = limit
	return &clone
}

// Analyze runs the pipeline and returns only the recommendations.
func (p *Pipeline) Analyze(ctx context.Context, clauses []models.Clause, refs []models.ReferenceClause) ([]models.Recommendation, error) {
	res, err := p.Run(ctx, clauses, refs)
	if err != nil {
		return nil, err
	}
	return res.Recommendations, nil
}

// Run classifies unset clause types, matches each clause to a reference,
// ranks and truncates the pairs, and generates recommendations in rank order.
func (p *Pipeline) Run(ctx context.Context, clauses []models.Clause, refs []models.ReferenceClause) (*Result, error) {
	res := &Result{
		Recommendations: []models.Recommendation{},
		Input:           len(clauses),
	}
	if len(clauses) == 0 {
		return res, nil
	}
	if err := ValidateReferences(refs); err != nil {
		return nil, err
	}

	usable := make([]models.Clause, 0, len(clauses))
	for _, c := range clauses {
		if strings.TrimSpace(c.Content) == "" {
			res.Skipped++
			continue
		}
		usable = append(usable, c)
	}
	if res.Skipped > 0 {
		p.logger.Debug("skipped blank clauses", logging.Int("skipped", res.Skipped))
	}

	classified := ClassifyAll(usable)
	pairs := Match(classified, refs)
	res.Matched = len(pairs)
	res.Dropped = len(classified) - len(pairs)
	if res.Dropped > 0 {
		p.observer.ObserveDropped(res.Dropped)
		p.logger.Warn("clauses dropped without a reference clause",
			logging.Int("dropped", res.Dropped),
			logging.Int("references", len(refs)),
		)
	}

	ranked := p.ranker.Rank(pairs)
	res.Truncated = len(pairs) - len(ranked)
	if res.Truncated > 0 {
		p.observer.ObserveTruncated(res.Truncated)
	}

	recs, err := p.engine.Recommend(ctx, ranked)
	if err != nil {
		return nil, err
	}
	res.Recommendations = recs

	p.logger.Info("analysis complete",
		logging.Int("clauses", res.Input),
		logging.Int("matched", res.Matched),
		logging.Int("truncated", res.Truncated),
		logging.Int("recommendations", len(recs)),
	)
	return res, nil
}

// ValidateReferences checks that every reference clause carries a taxonomy
// type and content. An empty set is valid.
func ValidateReferences(refs []models.ReferenceClause) error {
	for i, ref := range refs {
		if !ref.Type.Valid() {
			return fmt.Errorf("%w: reference %d (%s) has type %q", ErrInvalidReferenceSet, i, ref.ID, ref.Type)
		}
		if strings.TrimSpace(ref.Content) == "" {
			return fmt.Errorf("%w: reference %d (%s) has no content", ErrInvalidReferenceSet, i, ref.ID)
		}
	}
	return nil
}
