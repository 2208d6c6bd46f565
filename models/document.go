package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the processing status of an uploaded contract
type DocumentStatus string

const (
	DocumentStatusUploaded  DocumentStatus = "uploaded"
	DocumentStatusExtracted DocumentStatus = "extracted"
	DocumentStatusAnalyzing DocumentStatus = "analyzing"
	DocumentStatusAnalyzed  DocumentStatus = "analyzed"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// Document represents an uploaded contract document
type Document struct {
	ID            uuid.UUID      `json:"id"`
	FileID        *uuid.UUID     `json:"file_id,omitempty"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	Status        DocumentStatus `json:"status"`
	ContentHash   string         `json:"content_hash"`
	ExtractedText *string        `json:"extracted_text,omitempty"`

	// Clauses holds pre-typed clause candidates supplied by a structured extractor.
	// Empty when only raw text is available.
	Clauses Clauses `json:"clauses"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`
}
