package repository

import (
	"context"
	"fmt"

	"clauseguard-backend/models"

	"github.com/google/uuid"
)

// RecommendationRepository handles database operations for stored recommendations
type RecommendationRepository struct {
	db DBTX
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db DBTX) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// ReplaceForDocument stores the recommendations of one analysis job as the
// document's current set. Rank follows slice order, starting at 1.
func (r *RecommendationRepository) ReplaceForDocument(
	ctx context.Context,
	documentID, jobID uuid.UUID,
	recs []models.Recommendation,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recommendations WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}

	query := `
		INSERT INTO recommendations (
			document_id, job_id, rank, title, original_clause, explanation,
			suggestion, risk_level, clause_type, position, confidence, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for i, rec := range recs {
		if _, err := tx.Exec(ctx, query,
			documentID, jobID, i+1,
			rec.Title, rec.OriginalClause, rec.Explanation,
			rec.Suggestion, rec.RiskLevel, rec.ClauseType,
			rec.Position, rec.Confidence, rec.Source,
		); err != nil {
			return fmt.Errorf("failed to insert recommendation %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByDocumentID returns the stored recommendations for a document in rank order
func (r *RecommendationRepository) ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]models.StoredRecommendation, error) {
	query := `
		SELECT
			id, document_id, job_id, rank, title, original_clause, explanation,
			suggestion, risk_level, clause_type, position, confidence, source, created_at
		FROM recommendations
		WHERE document_id = $1
		ORDER BY rank ASC`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	stored := make([]models.StoredRecommendation, 0)
	for rows.Next() {
		var s models.StoredRecommendation
		err := rows.Scan(
			&s.ID,
			&s.DocumentID,
			&s.JobID,
			&s.Rank,
			&s.Title,
			&s.OriginalClause,
			&s.Explanation,
			&s.Suggestion,
			&s.RiskLevel,
			&s.ClauseType,
			&s.Position,
			&s.Confidence,
			&s.Source,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		stored = append(stored, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	return stored, nil
}
