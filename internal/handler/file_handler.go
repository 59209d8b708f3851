package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/media"
	"github.com/fleveque/thumbnail-service/internal/model"
	"github.com/fleveque/thumbnail-service/internal/storage"
)

// FileReader reads stored objects back by path.
type FileReader interface {
	Read(path string) ([]byte, error)
}

// FileHandler serves images written by the filesystem store, so the URLs
// it hands out resolve when running locally.
type FileHandler struct {
	files  FileReader
	logger *zap.Logger
}

func NewFileHandler(files FileReader, logger *zap.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// Get returns the raw image.
// Route: GET /files/*path
func (h *FileHandler) Get(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")

	data, err := h.files.Read(path)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, model.ErrStorage):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	default:
		h.logger.Error("reading stored file", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": ErrorDetail})
		return
	}

	c.Data(http.StatusOK, string(media.FileMimeType(path)), data)
}
