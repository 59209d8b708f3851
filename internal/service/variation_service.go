// Package service contains the generation pipelines. Each pipeline is a
// plain sequence of calls; a failure at any step aborts the request.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/llm"
	"github.com/fleveque/thumbnail-service/internal/media"
	"github.com/fleveque/thumbnail-service/internal/model"
	"github.com/fleveque/thumbnail-service/internal/storage"
)

// ContentSource resolves a content id to its metadata and poster URL.
type ContentSource interface {
	FetchContent(ctx context.Context, contentID string) (*model.ContentRef, error)
	PosterURL(ref *model.ContentRef) (string, error)
}

// ThumbnailDownloader fetches an existing thumbnail.
type ThumbnailDownloader interface {
	Download(ctx context.Context, url string) (*model.ImageAsset, error)
}

// OutputConfig controls where generated images land and how their URLs
// are built.
type OutputConfig struct {
	APIHost         string
	ProxyPath       string
	ThumbnailFolder string
	// PublicURLs returns object-store URLs instead of proxy URLs.
	PublicURLs bool
}

// VariationConfig configures VariationService.
type VariationConfig struct {
	Output         OutputConfig
	DescribePrompt string
	Timeouts       Timeouts
}

// VariationService turns a content item's thumbnail into new image variations.
type VariationService struct {
	content  ContentSource
	fetcher  ThumbnailDownloader
	vision   llm.Vision
	images   llm.ImageGenerator
	store    storage.ObjectStore
	tracker  *Tracker
	cfg      VariationConfig
	logger   *zap.Logger
	newToken func() string
}

// NewVariationService wires the variation pipeline. tracker may be nil.
func NewVariationService(
	content ContentSource,
	fetcher ThumbnailDownloader,
	vision llm.Vision,
	images llm.ImageGenerator,
	store storage.ObjectStore,
	tracker *Tracker,
	cfg VariationConfig,
	logger *zap.Logger,
) *VariationService {
	if cfg.DescribePrompt == "" {
		cfg.DescribePrompt = llm.DefaultDescribePrompt
	}
	return &VariationService{
		content:  content,
		fetcher:  fetcher,
		vision:   vision,
		images:   images,
		store:    store,
		tracker:  tracker,
		cfg:      cfg,
		logger:   logger,
		newToken: uuid.NewString,
	}
}

// Generate runs the whole variation pipeline for contentID:
//
//	content API -> poster URL -> download -> logo detection -> describe ->
//	image generation -> store each image -> URLs
func (s *VariationService) Generate(ctx context.Context, contentID string) (result *model.VariationResult, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if result != nil {
			n = len(result.Images)
		}
		s.tracker.finishRun(ctx, model.RunVariation, contentID, start, n, err)
	}()

	t := s.tracker
	timeouts := s.cfg.Timeouts

	var ref *model.ContentRef
	err = t.stage(ctx, "content", timeouts.Content, func(ctx context.Context) (err error) {
		ref, err = s.content.FetchContent(ctx, contentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching content %s: %w", contentID, err)
	}

	posterURL, err := s.content.PosterURL(ref)
	if err != nil {
		return nil, err
	}

	var img *model.ImageAsset
	err = t.stage(ctx, "download", timeouts.Download, func(ctx context.Context) (err error) {
		img, err = s.fetcher.Download(ctx, posterURL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("downloading thumbnail %s: %w", posterURL, err)
	}

	var logos llm.LogoList
	err = t.vendorCall(ctx, contentID, "detect_logos", s.vision.ProviderName(), s.vision.ModelName(), timeouts.Model,
		func(ctx context.Context) (err error) {
			logos, err = s.vision.DetectLogos(ctx, *img)
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("detecting logos: %w", err)
	}
	detection := model.NewLogoDetection(logos)

	var description *llm.TextResult
	err = t.vendorCall(ctx, contentID, "describe", s.vision.ProviderName(), s.vision.ModelName(), timeouts.Model,
		func(ctx context.Context) (err error) {
			description, err = s.vision.Describe(ctx, *img, s.cfg.DescribePrompt)
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("describing thumbnail: %w", err)
	}

	var batch llm.ImageBatch
	err = t.vendorCall(ctx, contentID, "generate_images", s.images.ProviderName(), s.images.ImageModelName(), timeouts.Model,
		func(ctx context.Context) (err error) {
			batch, err = s.images.GenerateImages(ctx, description.Text)
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("generating images: %w", err)
	}

	stem := media.FileStem(posterURL)
	if stem == "" {
		stem = s.newToken()
	}

	urls := make([]string, 0, len(batch))
	for i, asset := range batch {
		filename := fmt.Sprintf("%s_%d.%s", stem, i, asset.Extension())
		url, err := s.persist(ctx, contentID, filename, asset)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	s.logger.Info("generated image variations",
		zap.String("content_id", contentID),
		zap.Int("images", len(urls)),
		zap.Bool("logo_found", detection.Found),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.VariationResult{Images: urls, Logo: detection}, nil
}

// persist writes one image and returns the URL clients should use.
func (s *VariationService) persist(ctx context.Context, contentID, filename string, asset model.ImageAsset) (string, error) {
	return storeImage(ctx, s.tracker, s.store, s.cfg.Output, s.cfg.Timeouts.Storage, contentID, filename, asset, s.logger)
}

// storeImage is shared by the pipelines that write generated images.
func storeImage(
	ctx context.Context,
	t *Tracker,
	store storage.ObjectStore,
	out OutputConfig,
	timeout time.Duration,
	contentID, filename string,
	asset model.ImageAsset,
	logger *zap.Logger,
) (string, error) {
	path := media.ObjectPath(out.ThumbnailFolder, contentID, filename)
	logger.Info("storing image", zap.String("path", path))

	var publicURL string
	err := t.stage(ctx, "store", timeout, func(ctx context.Context) error {
		if err := store.Write(ctx, path, asset.Data, asset.MimeType); err != nil {
			return err
		}
		if out.PublicURLs {
			u, err := store.PublicURL(ctx, path)
			if err != nil {
				return err
			}
			publicURL = u
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", path, err)
	}
	if out.PublicURLs {
		return publicURL, nil
	}

	url, err := media.ProxyURL(out.APIHost, out.ProxyPath, contentID, filename)
	if err != nil {
		return "", fmt.Errorf("%w: building proxy url: %v", model.ErrConfiguration, err)
	}
	return url, nil
}
