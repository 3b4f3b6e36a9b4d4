package http

import (
	"github.com/gin-gonic/gin"
	"github.com/grocerygrid/backend/config"
	"github.com/rs/zerolog"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/sources", handler.ListSources)
			catalog.POST("/load", handler.LoadCatalog)
			catalog.POST("/query", handler.QueryCatalog)
			catalog.GET("/options", handler.GetOptions)
			catalog.GET("/products/:id", handler.GetProduct)
		}
	}

	return router
}
