package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the health check and API endpoints on r
func RegisterRoutes(r gin.IRouter, documents *DocumentHandler, analysis *AnalysisHandler) {
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		// Document endpoints
		api.POST("/documents", documents.UploadDocument)
		api.GET("/documents/:id", documents.GetDocument)
		api.GET("/documents/:id/file", documents.DownloadDocument)
		api.POST("/documents/:id/analyze", analysis.AnalyzeDocument)
		api.GET("/documents/:id/recommendations", analysis.GetRecommendations)

		// Job endpoints
		api.GET("/jobs/:id", analysis.GetJobStatus)

		// Synchronous analysis and reference data
		api.POST("/analyze", analysis.Analyze)
		api.GET("/references", analysis.ListReferences)
	}
}
