package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/model"
	"github.com/fleveque/thumbnail-service/internal/storage"
)

// AdminHandler handles administrative endpoints backed by the run ledger.
type AdminHandler struct {
	runRepo  storage.RunRepository
	callRepo storage.VendorCallRepository
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(runRepo storage.RunRepository, callRepo storage.VendorCallRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		runRepo:  runRepo,
		callRepo: callRepo,
		logger:   logger,
	}
}

// Stats returns generation run counts and vendor call counts.
// Route: GET /v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.runRepo.Count(ctx)
	if err != nil {
		h.internalError(c, "counting runs", err)
		return
	}

	byStatus := make(gin.H, 2)
	for _, status := range []model.RunStatus{model.RunSucceeded, model.RunFailed} {
		n, err := h.runRepo.CountByStatus(ctx, status)
		if err != nil {
			h.internalError(c, "counting runs by status", err)
			return
		}
		byStatus[string(status)] = n
	}

	byKind := make(gin.H, 3)
	for _, kind := range []model.RunKind{model.RunVariation, model.RunCourse, model.RunDocuments} {
		n, err := h.runRepo.CountByKind(ctx, kind)
		if err != nil {
			h.internalError(c, "counting runs by kind", err)
			return
		}
		byKind[string(kind)] = n
	}

	calls, err := h.callRepo.CountByProvider(ctx)
	if err != nil {
		h.internalError(c, "counting vendor calls", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":        total,
		"by_status":    byStatus,
		"by_kind":      byKind,
		"vendor_calls": calls,
	})
}

// RecentRuns lists the latest generation runs.
// Route: GET /v1/admin/runs?limit=20
func (h *AdminHandler) RecentRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return
	}

	runs, err := h.runRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.internalError(c, "listing runs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Run returns one generation run and how many vendor calls its content
// id has made so far.
// Route: GET /v1/admin/runs/:id
func (h *AdminHandler) Run(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	ctx := c.Request.Context()
	run, err := h.runRepo.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		h.internalError(c, "getting run", err)
		return
	}

	calls, err := h.callRepo.CountByContent(ctx, run.ContentID)
	if err != nil {
		h.internalError(c, "counting vendor calls", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "vendor_calls": calls})
}

func (h *AdminHandler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
