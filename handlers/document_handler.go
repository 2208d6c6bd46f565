package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"clauseguard-backend/logging"
	"clauseguard-backend/service"

	"github.com/gin-gonic/gin"
)

// DocumentHandler handles HTTP requests for contract documents
type DocumentHandler struct {
	documents DocumentService
	logger    logging.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents DocumentService, logger logging.Logger) *DocumentHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DocumentHandler{documents: documents, logger: logger}
}

// UploadDocument handles POST /api/documents
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	maxSize := h.documents.MaxUploadBytes()
	if fileHeader.Size > maxSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", maxSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	result, err := h.documents.Upload(c.Request.Context(), service.UploadRequest{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     file,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedMimeType):
			respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", err.Error())
		case errors.Is(err, service.ErrFileTooLarge):
			respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
				fmt.Sprintf("File size exceeds maximum of %d bytes", maxSize))
		case errors.Is(err, service.ErrNoExtractableText):
			respondError(c, http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT", err.Error())
		case errors.Is(err, service.ErrExtractionFailed):
			respondError(c, http.StatusBadGateway, "EXTRACTION_FAILED", err.Error())
		default:
			h.logger.Error("document upload failed",
				logging.String("filename", fileHeader.Filename),
				logging.Err(err),
			)
			respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED",
				fmt.Sprintf("Failed to upload document: %v", err))
		}
		return
	}

	doc := result.Document
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":           doc.ID,
			"filename":     doc.Filename,
			"mime_type":    doc.MimeType,
			"size":         result.File.Size,
			"status":       doc.Status,
			"content_hash": doc.ContentHash,
			"clause_count": len(doc.Clauses),
			"created_at":   doc.CreatedAt,
		},
	})
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := parseID(c, "document")
	if !ok {
		return
	}

	result, err := h.documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "RETRIEVAL_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Document,
	})
}

// DownloadDocument handles GET /api/documents/:id/file
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, ok := parseID(c, "document")
	if !ok {
		return
	}

	result, err := h.documents.Download(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED",
			fmt.Sprintf("Failed to download document: %v", err))
		return
	}
	defer result.Reader.Close()

	file := result.File
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, result.Reader, nil)
}
