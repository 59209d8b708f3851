package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/model"
)

// ErrorDetail is the only error message generation endpoints ever return.
// The real cause is logged.
const ErrorDetail = "Something went wrong, please try again later..."

// VariationGenerator is implemented by service.VariationService.
type VariationGenerator interface {
	Generate(ctx context.Context, contentID string) (*model.VariationResult, error)
}

// CourseImageGenerator is implemented by service.CourseService.
type CourseImageGenerator interface {
	Generate(ctx context.Context, courseID string) (*model.CourseImageResult, error)
}

// DocumentSummarizer is implemented by service.Summarizer.
type DocumentSummarizer interface {
	Generate(ctx context.Context, documents []string) (*model.DocumentSummaryResult, error)
}

// ImageHandler serves the image generation endpoints.
type ImageHandler struct {
	variations VariationGenerator
	courses    CourseImageGenerator
	documents  DocumentSummarizer
	logger     *zap.Logger
}

// NewImageHandler creates an ImageHandler. Any generator may be nil, in
// which case its route answers 503.
func NewImageHandler(variations VariationGenerator, courses CourseImageGenerator, documents DocumentSummarizer, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		variations: variations,
		courses:    courses,
		documents:  documents,
		logger:     logger,
	}
}

// Variations generates new thumbnails from a content item's current one.
// Route: GET /v1/image/variations/course/:course_id (and /v2)
func (h *ImageHandler) Variations(c *gin.Context) {
	courseID := c.Param("course_id")
	h.logger.Info("Course ID", zap.String("course_id", courseID))

	if h.variations == nil {
		unavailable(c)
		return
	}

	result, err := h.variations.Generate(c.Request.Context(), courseID)
	if err != nil {
		h.fail(c, "generating variations", courseID, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CourseImage generates a brand new course image from the course TOC.
// Route: GET /v1/image/course/:course_id
func (h *ImageHandler) CourseImage(c *gin.Context) {
	courseID := c.Param("course_id")
	h.logger.Info("Course ID", zap.String("course_id", courseID))

	if h.courses == nil {
		unavailable(c)
		return
	}

	result, err := h.courses.Generate(c.Request.Context(), courseID)
	if err != nil {
		h.fail(c, "generating course image", courseID, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type documentsRequest struct {
	Contents []string `json:"contents" binding:"required,min=1"`
}

// Documents summarizes a set of documents and proposes an image prompt.
// Route: POST /v1/image/documents
func (h *ImageHandler) Documents(c *gin.Context) {
	var req documentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "request body must be {\"contents\": [\"...\"]}"})
		return
	}

	if h.documents == nil {
		unavailable(c)
		return
	}

	result, err := h.documents.Generate(c.Request.Context(), req.Contents)
	if err != nil {
		h.fail(c, "summarizing documents", "", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ImageHandler) fail(c *gin.Context, msg, contentID string, err error) {
	h.logger.Error(msg,
		zap.String("course_id", contentID),
		zap.Error(err),
		zap.Stack("stack"),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": ErrorDetail})
}

func unavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "this generator is not configured"})
}
