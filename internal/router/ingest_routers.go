package router

import (
	"github.com/gin-gonic/gin"

	"github.com/salescope/salescope/internal/handler"
)

func registerIngestRoutes(router *gin.RouterGroup, ingestHandler *handler.IngestHandler) {
	ingest := router.Group("/ingest")
	{
		ingest.POST("/upload", ingestHandler.Upload)
		ingest.GET("/recent", ingestHandler.Recent)
	}
}
