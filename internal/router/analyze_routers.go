package router

import (
	"github.com/gin-gonic/gin"

	"github.com/salescope/salescope/internal/handler"
)

func registerAnalyzeRoutes(router *gin.RouterGroup, analyzeHandler *handler.AnalyzeHandler) {
	analyze := router.Group("/analyze")
	{
		analyze.POST("/run", analyzeHandler.Run)
		analyze.GET("/profile", analyzeHandler.Profile)
	}
}
