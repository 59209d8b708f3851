// Package server configures the HTTP server and routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/config"
	"github.com/fleveque/thumbnail-service/internal/handler"
	"github.com/fleveque/thumbnail-service/internal/metrics"
	"github.com/fleveque/thumbnail-service/internal/storage"
)

// Deps are the already-built pieces the routes need. Generators may be nil
// when their vendor is not configured.
type Deps struct {
	Variations handler.VariationGenerator
	Courses    handler.CourseImageGenerator
	Documents  handler.DocumentSummarizer
	RunRepo    storage.RunRepository
	CallRepo   storage.VendorCallRepository
	Metrics    *metrics.Metrics
	// Files serves stored images back when the store is local.
	Files handler.FileReader
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	logger *zap.Logger
	http   *http.Server
}

// New creates and configures a new Server.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *Server {
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false

	// Recovery middleware catches panics and returns the same 500 body as
	// any other failure.
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic serving request",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": handler.ErrorDetail})
	}))
	router.Use(deps.Metrics.Middleware())

	RegisterRoutes(router, cfg, deps, logger)

	return &Server{
		cfg:    cfg,
		router: router,
		logger: logger,
		http: &http.Server{
			Addr:        cfg.Server.Address(),
			Handler:     router,
			ReadTimeout: 10 * time.Second,
			// Generation requests chain several model calls.
			WriteTimeout: writeTimeout(cfg.Timeouts),
			IdleTimeout:  60 * time.Second,
		},
	}
}

// writeTimeout covers the longest pipeline: content, download, three model
// calls, storage, plus headroom.
func writeTimeout(t config.TimeoutsConfig) time.Duration {
	d := t.Content + t.Download + 3*t.Model + t.Storage + 30*time.Second
	if d < 60*time.Second {
		return 60 * time.Second
	}
	return d
}

// Start begins listening for HTTP requests. This blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("address", s.cfg.Server.Address()))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.http.Shutdown(ctx)
}

// Router returns the underlying Gin engine (useful for testing).
func (s *Server) Router() *gin.Engine {
	return s.router
}
