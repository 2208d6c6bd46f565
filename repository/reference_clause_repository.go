package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"clauseguard-backend/models"
)

// ReferenceClauseRepository handles database operations for the gold-standard
// reference clauses. It satisfies pipeline.ReferenceSource.
type ReferenceClauseRepository struct {
	db DBTX
}

// NewReferenceClauseRepository creates a new reference clause repository
func NewReferenceClauseRepository(db DBTX) *ReferenceClauseRepository {
	return &ReferenceClauseRepository{db: db}
}

// References returns every reference clause in insertion order. Matching
// takes the first reference of a type, so order is significant.
func (r *ReferenceClauseRepository) References(ctx context.Context) ([]models.ReferenceClause, error) {
	query := `
		SELECT id, clause_type, content, description, metadata
		FROM reference_clauses
		ORDER BY seq`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference clauses: %w", err)
	}
	defer rows.Close()

	refs := make([]models.ReferenceClause, 0)
	for rows.Next() {
		var (
			ref      models.ReferenceClause
			metadata []byte
		)
		if err := rows.Scan(&ref.ID, &ref.Type, &ref.Content, &ref.Description, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan reference clause: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ref.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", ref.ID, err)
			}
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference clauses: %w", err)
	}

	return refs, nil
}

// Upsert inserts or updates reference clauses in a single transaction.
// Existing rows keep their original position.
func (r *ReferenceClauseRepository) Upsert(ctx context.Context, refs []models.ReferenceClause) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO reference_clauses (id, clause_type, content, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			clause_type = EXCLUDED.clause_type,
			content = EXCLUDED.content,
			description = EXCLUDED.description,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`

	for _, ref := range refs {
		metadataJSON, err := json.Marshal(ref.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if ref.Metadata == nil {
			metadataJSON = []byte("{}")
		}

		if _, err := tx.Exec(ctx, query,
			ref.ID, ref.Type, ref.Content, ref.Description, string(metadataJSON),
		); err != nil {
			return fmt.Errorf("failed to upsert reference %s: %w", ref.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
