// Package handler contains the gin HTTP handlers. Handlers only translate
// between HTTP and the service layer; generation errors never leak to
// callers.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles liveness and the root banner.
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Healthz responds with service status.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "thumbnail-service",
	})
}

// Root identifies the application. Route: GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"This is": "Image Generation Application"})
}

// NotFound is installed as the router's NoRoute handler.
func (h *HealthHandler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
}
