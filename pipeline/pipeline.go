// Package pipeline turns an unordered bag of extracted contract clauses into
// an ordered, bounded list of recommendations.
//
// The stages run in a fixed sequence: Classify → Match → Rank → Recommend.
// Only the Recommend stage performs I/O, through the injected Generator.
package pipeline

import (
	"context"
	"errors"
	"time"

	"clauseguard-backend/models"
)

var (
	// ErrInvalidReferenceSet indicates a configuration defect in the reference clauses.
	ErrInvalidReferenceSet = errors.New("invalid reference clause set")
	// ErrGenerationMismatch is returned when a generator answers with the wrong number of results.
	ErrGenerationMismatch = errors.New("generation result count does not match request")
)

// GenerationRequest is one clause sent to the generation collaborator.
type GenerationRequest struct {
	ID            string            `json:"id"`
	ClauseType    models.ClauseType `json:"clauseType"`
	OriginalText  string            `json:"originalText"`
	ReferenceText string            `json:"referenceText"`
}

// GenerationResult is the generator's answer for one request, aligned by index.
type GenerationResult struct {
	ID          string           `json:"id"`
	RiskLevel   models.RiskLevel `json:"riskLevel"`
	Explanation string           `json:"explanation"`
	Suggestion  string           `json:"suggestion"`
}

// Generator produces rewritten clauses for a batch of requests.
// Implementations must honour ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, batch []GenerationRequest) ([]GenerationResult, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, batch []GenerationRequest) ([]GenerationResult, error)

func (f GeneratorFunc) Generate(ctx context.Context, batch []GenerationRequest) ([]GenerationResult, error) {
	return f(ctx, batch)
}

// ReferenceSource supplies the gold-standard reference set.
type ReferenceSource interface {
	References(ctx context.Context) ([]models.ReferenceClause, error)
}

// Generation outcomes reported to an Observer
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeMalformed   = "malformed"
	OutcomeUnavailable = "unavailable"
)

// Observer receives pipeline measurements. metrics.Metrics implements it.
type Observer interface {
	ObserveGeneration(outcome string, elapsed time.Duration)
	ObserveRecommendation(clauseType models.ClauseType, source models.RecommendationSource)
	ObserveDropped(n int)
	ObserveTruncated(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveGeneration(string, time.Duration)                                 {}
func (nopObserver) ObserveRecommendation(models.ClauseType, models.RecommendationSource) {}
func (nopObserver) ObserveDropped(int)                                                      {}
func (nopObserver) ObserveTruncated(int)                                                    {}
