// Package router wires the HTTP routes to their handlers.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/salescope/salescope/internal/handler"
)

type Config struct {
	IngestHandler  *handler.IngestHandler
	AnalyzeHandler *handler.AnalyzeHandler
	NLSQLHandler   *handler.NLSQLHandler
	HealthHandler  *handler.HealthHandler
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	router.GET("/health", cfg.HealthHandler.Health)

	api := router.Group("/v1/")
	registerIngestRoutes(api, cfg.IngestHandler)
	registerAnalyzeRoutes(api, cfg.AnalyzeHandler)
	registerNLSQLRoutes(api, cfg.NLSQLHandler)

	return router
}
