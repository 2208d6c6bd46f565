package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel represents the assessed risk of a clause
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// Valid reports whether r is one of high, medium or low
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// RecommendationSource records which path produced a recommendation
type RecommendationSource string

const (
	SourceGenerated RecommendationSource = "generated"
	SourceTemplate  RecommendationSource = "template"
	SourceGeneric   RecommendationSource = "generic"
)

// Recommendation is the final output unit for one clause.
// Suggestion is always a complete replacement clause, never commentary.
type Recommendation struct {
	Title          string               `json:"title"`
	OriginalClause string               `json:"originalClause"`
	Explanation    string               `json:"explanation"`
	Suggestion     string               `json:"suggestion"`
	RiskLevel      RiskLevel            `json:"riskLevel"`
	ClauseType     ClauseType           `json:"clauseType"`
	Position       int                  `json:"position"`
	Confidence     float64              `json:"confidence"`
	Source         RecommendationSource `json:"source"`
}

// StoredRecommendation is a recommendation persisted for a document analysis
type StoredRecommendation struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	JobID      uuid.UUID `json:"job_id"`
	Rank       int       `json:"rank"`
	Recommendation
	CreatedAt time.Time `json:"created_at"`
}
