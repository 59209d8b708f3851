package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/config"
	"github.com/fleveque/thumbnail-service/internal/handler"
	"github.com/fleveque/thumbnail-service/internal/middleware"
)

// RegisterRoutes sets up all HTTP routes on the Gin engine. Dependencies are
// passed explicitly; each handler gets exactly what it needs.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	imageHandler := handler.NewImageHandler(deps.Variations, deps.Courses, deps.Documents, logger)

	// Global so preflight OPTIONS requests, which match no route, still get
	// CORS headers.
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.NoRoute(healthHandler.NotFound)

	// Public endpoints (no auth)
	r.GET("/", healthHandler.Root)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if deps.Files != nil {
		fileHandler := handler.NewFileHandler(deps.Files, logger)
		r.GET("/files/*path", fileHandler.Get)
	}

	auth := middleware.APIKeyAuth(cfg.Auth.APIKeys)
	limit := middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	v1 := r.Group("/v1")
	{
		image := v1.Group("/image", auth, limit)
		image.GET("/variations/course/:course_id", imageHandler.Variations)
		image.GET("/course/:course_id", imageHandler.CourseImage)
		image.POST("/documents", imageHandler.Documents)
	}

	v2 := r.Group("/v2")
	{
		image := v2.Group("/image", auth, limit)
		image.GET("/variations/course/:course_id", imageHandler.Variations)
	}

	// Admin endpoints need the run ledger.
	if deps.RunRepo != nil && deps.CallRepo != nil {
		adminHandler := handler.NewAdminHandler(deps.RunRepo, deps.CallRepo, logger)
		admin := v1.Group("/admin", middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/runs", adminHandler.RecentRuns)
		admin.GET("/runs/:id", adminHandler.Run)
	}
}
