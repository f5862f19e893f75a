package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/service"
)

type NLSQLHandler struct {
	nlsqlService *service.NLSQLService
}

func NewNLSQLHandler(nlsqlService *service.NLSQLService) *NLSQLHandler {
	return &NLSQLHandler{
		nlsqlService: nlsqlService,
	}
}

// Query turns a natural-language question into guarded SQL and runs it.
func (h *NLSQLHandler) Query(c *gin.Context) {
	var req model.NLQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.nlsqlService.Query(c.Request.Context(), req.Question, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
