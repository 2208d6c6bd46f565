package repository

import (
	"context"
	"fmt"

	"clauseguard-backend/models"

	"github.com/google/uuid"
)

// DocumentRepository handles database operations for contract documents
type DocumentRepository struct {
	db DBTX
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db DBTX) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, file_id, filename, mime_type, status, content_hash,
			extracted_text, clauses, created_at, updated_at, analyzed_at`

func scanDocument(row interface{ Scan(dest ...any) error }) (*models.Document, error) {
	doc := &models.Document{}
	err := row.Scan(
		&doc.ID,
		&doc.FileID,
		&doc.Filename,
		&doc.MimeType,
		&doc.Status,
		&doc.ContentHash,
		&doc.ExtractedText,
		&doc.Clauses,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}
	if doc.Clauses == nil {
		doc.Clauses = make(models.Clauses, 0)
	}
	return doc, nil
}

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	query := `
		INSERT INTO documents (
			id, file_id, filename, mime_type, status, content_hash, extracted_text, clauses
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.FileID,
		doc.Filename,
		doc.MimeType,
		doc.Status,
		doc.ContentHash,
		doc.ExtractedText,
		doc.Clauses,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return doc, nil
}

// UpdateStatus updates the status of a document
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error {
	query := `
		UPDATE documents SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAnalyzed sets the analyzed status and timestamp
func (r *DocumentRepository) MarkAnalyzed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE documents SET
			status = $2,
			analyzed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.DocumentStatusAnalyzed)
	return err
}
