package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/media"
	"github.com/fleveque/thumbnail-service/internal/model"
)

// S3Config points at an S3-compatible endpoint (MinIO, Ceph, AWS).
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	// PublicBaseURL overrides the URL prefix returned by PublicURL. Empty
	// means {scheme}://{endpoint}/{bucket}.
	PublicBaseURL string
}

// S3Store writes objects to an S3-compatible bucket. The bucket must
// already exist and allow anonymous reads for PublicURL to be useful.
type S3Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewS3Store validates the config and creates a client. No request is made
// until the first Write.
func NewS3Store(cfg S3Config, logger *zap.Logger) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 store needs an endpoint and a bucket", model.ErrConfiguration)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating s3 client: %v", model.ErrConfiguration, err)
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = client.EndpointURL().String() + "/" + url.PathEscape(cfg.Bucket)
	}

	return &S3Store{client: client, bucket: cfg.Bucket, baseURL: baseURL, logger: logger}, nil
}

// Write uploads data to path. An empty mimeType is inferred from the extension.
func (s *S3Store) Write(ctx context.Context, path string, data []byte, mimeType model.MimeType) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("%w: s3 client not initialized", model.ErrStorage)
	}
	if mimeType == "" {
		mimeType = media.FileMimeType(path)
	}

	info, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: string(mimeType)})
	if err != nil {
		return fmt.Errorf("%w: uploading %s: %v", model.ErrStorage, path, err)
	}

	s.logger.Debug("uploaded object",
		zap.String("bucket", s.bucket),
		zap.String("path", path),
		zap.Int64("size", info.Size),
	)
	return nil
}

// PublicURL returns the anonymous-read URL for path.
func (s *S3Store) PublicURL(ctx context.Context, path string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("%w: s3 client not initialized", model.ErrStorage)
	}
	return s.baseURL + "/" + path, nil
}
