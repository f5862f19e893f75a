package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/service"
)

type AnalyzeHandler struct {
	analyzeService *service.AnalyzeService
}

func NewAnalyzeHandler(analyzeService *service.AnalyzeService) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzeService: analyzeService,
	}
}

// Run executes the analysis pipeline for the posted filters.
func (h *AnalyzeHandler) Run(c *gin.Context) {
	var req model.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.analyzeService.Run(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile summarizes the current fact table.
func (h *AnalyzeHandler) Profile(c *gin.Context) {
	profile, err := h.analyzeService.Profile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
