package provider

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/model"
)

// ThumbnailFetcher downloads existing thumbnails. Only PNG and JPEG
// responses are accepted.
type ThumbnailFetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewThumbnailFetcher creates a fetcher whose requests give up after timeout.
func NewThumbnailFetcher(timeout time.Duration, logger *zap.Logger) *ThumbnailFetcher {
	return &ThumbnailFetcher{
		client: newHTTPClient(timeout),
		logger: logger,
	}
}

// Download fetches url once. A non-2xx status is a transport failure;
// a Content-Type outside the whitelist is ErrUnsupportedMediaType.
func (f *ThumbnailFetcher) Download(ctx context.Context, url string) (*model.ImageAsset, error) {
	resp, err := fetch(ctx, f.client, url)
	if err != nil {
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d for %s", model.ErrTransport, resp.StatusCode, url)
	}

	mimeType := model.MimeType(mediaType(resp.Header.Get("Content-Type")))
	if !mimeType.Supported() {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: Image can only be in the following formats: %s",
			model.ErrUnsupportedMediaType, model.SupportedMimeList())
	}

	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("downloaded thumbnail",
		zap.String("url", url),
		zap.String("mime_type", string(mimeType)),
		zap.Int("bytes", len(data)),
	)

	return &model.ImageAsset{MimeType: mimeType, Data: data}, nil
}

// mediaType strips parameters such as "; charset=binary".
func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return header
	}
	return mt
}
