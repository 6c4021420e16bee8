package api

import (
	"github.com/gin-gonic/gin"

	"github.com/quizhive/mimir/internal/config"
	"github.com/quizhive/mimir/internal/quiz"
)

func SetupRoutes(cfg *config.Config, svc *quiz.Service) *gin.Engine {
	router := gin.Default()

	// Create handler
	handler := NewHandler(cfg, svc)

	// Create rate limiter
	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	// Middleware
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/questions", handler.CreateQuestion)
		api.PUT("/questions/:id", handler.UpdateQuestion)
		api.DELETE("/questions/:id", handler.DeleteQuestion)
		api.POST("/questions/import", handler.ImportQuestions)
		api.GET("/imports/:id", handler.GetImportStatus)
		api.POST("/uploads", handler.UploadCollection)
	}

	return router
}
