package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisJobStatus represents the status of an analysis job
type AnalysisJobStatus string

const (
	JobStatusPending    AnalysisJobStatus = "pending"
	JobStatusInProgress AnalysisJobStatus = "in_progress"
	JobStatusCompleted  AnalysisJobStatus = "completed"
	JobStatusFailed     AnalysisJobStatus = "failed"
)

// Step statuses
const (
	StepPending    = "pending"
	StepInProgress = "in_progress"
	StepCompleted  = "completed"
	StepFailed     = "failed"
)

// AnalysisStep represents a step in the analysis process
type AnalysisStep struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// AnalysisSteps represents a list of analysis steps
type AnalysisSteps []AnalysisStep

// Value implements driver.Valuer for JSONB
func (s AnalysisSteps) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *AnalysisSteps) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok || len(bytes) == 0 {
		*s = make(AnalysisSteps, 0)
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Clauses is a JSONB-backed clause list
type Clauses []Clause

// Value implements driver.Valuer for JSONB
func (c Clauses) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *Clauses) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok || len(bytes) == 0 {
		*c = make(Clauses, 0)
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// jsonbBytes handles the different types pgx may return for a JSONB column
func jsonbBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}

// AnalysisJob represents one pipeline run over a document
type AnalysisJob struct {
	ID          uuid.UUID         `json:"id"`
	DocumentID  uuid.UUID         `json:"document_id"`
	Status      AnalysisJobStatus `json:"status"`
	CurrentStep *string           `json:"current_step,omitempty"`
	Steps       AnalysisSteps     `json:"steps"`
	Limit       int               `json:"limit"`

	// Counts make clause loss observable: Dropped clauses had no reference,
	// Truncated pairs fell outside the priority cap.
	ClauseCount         int `json:"clause_count"`
	DroppedCount        int `json:"dropped_count"`
	TruncatedCount      int `json:"truncated_count"`
	RecommendationCount int `json:"recommendation_count"`

	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
