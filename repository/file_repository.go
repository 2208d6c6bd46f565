package repository

import (
	"context"
	"fmt"

	"clauseguard-backend/models"

	"github.com/google/uuid"
)

// FileRepository handles database operations for stored uploads
type FileRepository struct {
	db DBTX
}

// NewFileRepository creates a new file repository
func NewFileRepository(db DBTX) *FileRepository {
	return &FileRepository{db: db}
}

// Create creates a new file record. The ID is assigned by the caller so the
// blob can be stored under it first.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (
			id, filename, mime_type, size, storage_path, content_hash
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		file.ID,
		file.Filename,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.ContentHash,
	).Scan(&file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	file := &models.File{}
	query := `
		SELECT id, filename, mime_type, size, storage_path, content_hash, created_at
		FROM files
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&file.ID,
		&file.Filename,
		&file.MimeType,
		&file.Size,
		&file.StoragePath,
		&file.ContentHash,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return file, nil
}

// Delete deletes a file record
func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM files WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
