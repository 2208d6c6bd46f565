package handlers

import (
	"context"
	"errors"
	"net/http"

	"clauseguard-backend/logging"
	"clauseguard-backend/models"
	"clauseguard-backend/pipeline"
	"clauseguard-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalysisHandler handles HTTP requests for clause analysis
type AnalysisHandler struct {
	analysis AnalysisService
	logger   logging.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysis AnalysisService, logger logging.Logger) *AnalysisHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisHandler{analysis: analysis, logger: logger}
}

// ClauseInput is one clause in a synchronous analysis request
type ClauseInput struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// AnalyzeRequest represents the request body for POST /api/analyze
type AnalyzeRequest struct {
	Clauses []ClauseInput `json:"clauses"`
	Text    string        `json:"text"`
	Limit   int           `json:"limit" binding:"min=0"`
}

// AnalyzeDocument handles POST /api/documents/:id/analyze
func (h *AnalysisHandler) AnalyzeDocument(c *gin.Context) {
	id, ok := parseID(c, "document")
	if !ok {
		return
	}

	// Body is optional
	var reqBody struct {
		Limit int `json:"limit" binding:"min=0"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&reqBody); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	// Create job (synchronous, fast)
	result, err := h.analysis.StartAnalysis(c.Request.Context(), service.StartAnalysisRequest{
		DocumentID: id,
		Limit:      reqBody.Limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDocumentNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		case errors.Is(err, service.ErrNoExtractableText):
			respondError(c, http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ANALYSIS_FAILED", err.Error())
		}
		return
	}

	// Background context so the job outlives the request
	go h.process(result.JobID)

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":  result.JobID,
			"status":  models.JobStatusPending,
			"message": "Analysis job created. Poll /api/jobs/:id for updates.",
		},
	})
}

func (h *AnalysisHandler) process(jobID uuid.UUID) {
	if err := h.analysis.ProcessAnalysis(context.Background(), jobID); err != nil {
		// Stored in job.ErrorMessage; clients poll the job
		h.logger.Error("analysis job failed",
			logging.String("job_id", jobID.String()),
			logging.Err(err),
		)
	}
}

// GetJobStatus handles GET /api/jobs/:id
func (h *AnalysisHandler) GetJobStatus(c *gin.Context) {
	id, ok := parseID(c, "job")
	if !ok {
		return
	}

	result, err := h.analysis.GetJobStatus(c.Request.Context(), service.GetJobStatusRequest{JobID: id})
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Analysis job not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "RETRIEVAL_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Job,
	})
}

// GetRecommendations handles GET /api/documents/:id/recommendations
func (h *AnalysisHandler) GetRecommendations(c *gin.Context) {
	id, ok := parseID(c, "document")
	if !ok {
		return
	}

	result, err := h.analysis.GetRecommendations(c.Request.Context(), id)
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
		"data": gin.H{
			"document_id":     id,
			"recommendations": result.Recommendations,
			"latest_job":      result.LatestJob,
		},
	})
}

// Analyze handles POST /api/analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	clauses := make([]models.Clause, len(req.Clauses))
	for i, in := range req.Clauses {
		// Unknown type names are left for the classifier
		t, _ := models.ParseClauseType(in.Type)
		clauses[i] = models.Clause{Content: in.Content, Type: t, Position: i}
	}

	result, err := h.analysis.Analyze(c.Request.Context(), service.AnalyzeRequest{
		Clauses: clauses,
		Text:    req.Text,
		Limit:   req.Limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReferencesFailed):
			respondError(c, http.StatusServiceUnavailable, "REFERENCES_UNAVAILABLE", err.Error())
		case errors.Is(err, pipeline.ErrInvalidReferenceSet):
			respondError(c, http.StatusInternalServerError, "INVALID_REFERENCE_SET", err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respondError(c, http.StatusGatewayTimeout, "ANALYSIS_TIMEOUT", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ANALYSIS_FAILED", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ListReferences handles GET /api/references
func (h *AnalysisHandler) ListReferences(c *gin.Context) {
	refs, err := h.analysis.References(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "REFERENCES_UNAVAILABLE", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    refs,
	})
}
