package handlers

import (
	"context"
	"net/http"

	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
	"clauseguard-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentService is the document surface used by the HTTP layer
type DocumentService interface {
	Upload(ctx context.Context, req service.UploadRequest) (*service.UploadResult, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*service.GetDocumentResult, error)
	Download(ctx context.Context, documentID uuid.UUID) (*service.DownloadResult, error)
	MaxUploadBytes() int64
}

// AnalysisService is the analysis surface used by the HTTP layer
type AnalysisService interface {
	StartAnalysis(ctx context.Context, req service.StartAnalysisRequest) (*service.StartAnalysisResult, error)
	ProcessAnalysis(ctx context.Context, jobID uuid.UUID) error
	GetJobStatus(ctx context.Context, req service.GetJobStatusRequest) (*service.GetJobStatusResult, error)
	GetRecommendations(ctx context.Context, documentID uuid.UUID) (*service.GetRecommendationsResult, error)
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*pipeline.Result, error)
	References(ctx context.Context) ([]models.ReferenceClause, error)
}

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// parseID parses the :id path parameter, writing a 400 response on failure
func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
