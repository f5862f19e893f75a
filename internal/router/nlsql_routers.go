package router

import (
	"github.com/gin-gonic/gin"

	"github.com/salescope/salescope/internal/handler"
)

func registerNLSQLRoutes(router *gin.RouterGroup, nlsqlHandler *handler.NLSQLHandler) {
	nlsql := router.Group("/nlsql")
	{
		nlsql.POST("/query", nlsqlHandler.Query)
	}
}
