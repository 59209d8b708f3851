package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/fleveque/thumbnail-service/internal/media"
	"github.com/fleveque/thumbnail-service/internal/model"
)

// GCSConfig names the bucket and the service-account key used to write to it.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// GCSStore writes objects to a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCSStore validates the config before touching the network, then
// opens a client. The client is safe for concurrent use and should be
// closed on shutdown.
func NewGCSStore(ctx context.Context, cfg GCSConfig, logger *zap.Logger) (*GCSStore, error) {
	if cfg.Bucket == "" || cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("%w: gcs store needs a bucket name and a credentials file", model.ErrConfiguration)
	}

	client, err := storage.NewClient(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: creating gcs client: %v", model.ErrConfiguration, err)
	}

	return &GCSStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Write uploads data to path. An empty mimeType is inferred from the extension.
func (s *GCSStore) Write(ctx context.Context, path string, data []byte, mimeType model.MimeType) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("%w: gcs client not initialized", model.ErrStorage)
	}
	if mimeType == "" {
		mimeType = media.FileMimeType(path)
	}

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = string(mimeType)

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: writing %s: %v", model.ErrStorage, path, err)
	}
	// The upload is only committed on Close.
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: committing %s: %v", model.ErrStorage, path, err)
	}

	s.logger.Info("stored object",
		zap.String("bucket", s.bucket),
		zap.String("path", path),
		zap.String("content_type", string(mimeType)),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// PublicURL grants allUsers read access to path and returns its public URL.
func (s *GCSStore) PublicURL(ctx context.Context, path string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("%w: gcs client not initialized", model.ErrStorage)
	}

	acl := s.client.Bucket(s.bucket).Object(path).ACL()
	if err := acl.Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("%w: making %s public: %v", model.ErrStorage, path, err)
	}
	return publicObjectURL(s.bucket, path), nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func publicObjectURL(bucket, path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, path)
}
