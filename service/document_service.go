package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"clauseguard-backend/logging"
	"clauseguard-backend/models"
	"clauseguard-backend/repository"
	"clauseguard-backend/storage"

	"github.com/google/uuid"
)

// DefaultMaxUploadBytes caps uploaded documents at 10MB
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

// DocumentService handles contract uploads and text extraction
type DocumentService struct {
	documentRepo   DocumentRepository
	fileRepo       FileRepository
	storage        storage.Storage
	extractors     []Extractor
	maxUploadBytes int64
	logger         logging.Logger
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// DocumentWithDocumentRepository sets the document repository
func DocumentWithDocumentRepository(repo DocumentRepository) DocumentServiceOption {
	return func(s *DocumentService) {
		s.documentRepo = repo
	}
}

// DocumentWithFileRepository sets the file repository
func DocumentWithFileRepository(repo FileRepository) DocumentServiceOption {
	return func(s *DocumentService) {
		s.fileRepo = repo
	}
}

// DocumentWithStorage sets the blob storage
func DocumentWithStorage(st storage.Storage) DocumentServiceOption {
	return func(s *DocumentService) {
		s.storage = st
	}
}

// DocumentWithExtractor appends an extractor. Extractors are tried in the
// order they were added; the first that supports the MIME type wins.
func DocumentWithExtractor(e Extractor) DocumentServiceOption {
	return func(s *DocumentService) {
		if e != nil {
			s.extractors = append(s.extractors, e)
		}
	}
}

// DocumentWithMaxUploadBytes sets the upload size limit
func DocumentWithMaxUploadBytes(n int64) DocumentServiceOption {
	return func(s *DocumentService) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// DocumentWithLogger sets the logger
func DocumentWithLogger(l logging.Logger) DocumentServiceOption {
	return func(s *DocumentService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	s := &DocumentService{
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxUploadBytes returns the configured upload size limit
func (s *DocumentService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// UploadRequest represents an uploaded contract
type UploadRequest struct {
	Filename string
	MimeType string // inferred from Filename when empty
	Data     io.Reader
}

// UploadResult represents the stored document and its backing file
type UploadResult struct {
	Document *models.Document
	File     *models.File
}

// GetDocumentResult represents a loaded document
type GetDocumentResult struct {
	Document *models.Document
}

// DownloadResult carries the original upload. Callers must close Reader.
type DownloadResult struct {
	File   *models.File
	Reader io.ReadCloser
}

// Upload extracts the document's text, stores the original and records both.
// Extraction runs first so unreadable documents never reach storage.
func (s *DocumentService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if s.documentRepo == nil {
		return nil, errors.New("document repository not set")
	}
	if s.fileRepo == nil {
		return nil, errors.New("file repository not set")
	}
	if s.storage == nil {
		return nil, errors.New("storage not set")
	}

	mimeType := baseMimeType(req.MimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = storage.ContentType(req.Filename)
	}

	extractor := s.extractorFor(mimeType)
	if extractor == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMimeType, mimeType)
	}

	data, err := io.ReadAll(io.LimitReader(req.Data, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrNoExtractableText
	}

	extraction, err := extractor.Extract(ctx, data, mimeType)
	if err != nil {
		if errors.Is(err, ErrUnsupportedMimeType) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(extraction.Text) == "" && len(extraction.Clauses) == 0 {
		return nil, ErrNoExtractableText
	}

	hash := fingerprint(data)
	fileID := uuid.New()

	storagePath, err := s.storage.Upload(ctx, fileID, req.Filename, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	file := &models.File{
		ID:          fileID,
		Filename:    req.Filename,
		MimeType:    mimeType,
		Size:        int64(len(data)),
		StoragePath: storagePath,
		ContentHash: hash,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		s.cleanupBlob(ctx, storagePath)
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	text := extraction.Text
	doc := &models.Document{
		ID:            uuid.New(),
		FileID:        &fileID,
		Filename:      req.Filename,
		MimeType:      mimeType,
		Status:        models.DocumentStatusExtracted,
		ContentHash:   hash,
		ExtractedText: &text,
		Clauses:       models.Clauses(extraction.Clauses),
	}
	if doc.Clauses == nil {
		doc.Clauses = make(models.Clauses, 0)
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		if delErr := s.fileRepo.Delete(ctx, fileID); delErr != nil {
			s.logger.Warn("failed to remove orphaned file record",
				logging.String("file_id", fileID.String()),
				logging.Err(delErr),
			)
		}
		s.cleanupBlob(ctx, storagePath)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	s.logger.Info("document uploaded",
		logging.String("document_id", doc.ID.String()),
		logging.String("mime_type", mimeType),
		logging.Int("bytes", len(data)),
		logging.Int("clauses", len(doc.Clauses)),
	)

	return &UploadResult{Document: doc, File: file}, nil
}

// GetDocument loads a document by ID
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*GetDocumentResult, error) {
	if s.documentRepo == nil {
		return nil, errors.New("document repository not set")
	}
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &GetDocumentResult{Document: doc}, nil
}

// Download opens the original upload of a document
func (s *DocumentService) Download(ctx context.Context, documentID uuid.UUID) (*DownloadResult, error) {
	res, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if res.Document.FileID == nil {
		return nil, ErrDocumentNotFound
	}

	file, err := s.fileRepo.GetByID(ctx, *res.Document.FileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	reader, err := s.storage.Download(ctx, file.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to download document: %w", err)
	}

	return &DownloadResult{File: file, Reader: reader}, nil
}

func (s *DocumentService) extractorFor(mimeType string) Extractor {
	for _, e := range s.extractors {
		if e.Supports(mimeType) {
			return e
		}
	}
	return nil
}

func (s *DocumentService) cleanupBlob(ctx context.Context, storagePath string) {
	if err := s.storage.Delete(ctx, storagePath); err != nil {
		s.logger.Warn("failed to remove orphaned upload",
			logging.String("storage_path", storagePath),
			logging.Err(err),
		)
	}
}
