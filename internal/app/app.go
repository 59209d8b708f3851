// Package app builds the long-lived clients and services from config. The
// server and the CLI share it so both run the exact same pipelines.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/config"
	"github.com/fleveque/thumbnail-service/internal/llm"
	"github.com/fleveque/thumbnail-service/internal/metrics"
	"github.com/fleveque/thumbnail-service/internal/model"
	"github.com/fleveque/thumbnail-service/internal/provider"
	"github.com/fleveque/thumbnail-service/internal/server"
	"github.com/fleveque/thumbnail-service/internal/service"
	"github.com/fleveque/thumbnail-service/internal/storage"
)

// App holds every built component. Generators whose vendor is not
// configured are nil.
type App struct {
	Variations *service.VariationService
	Courses    *service.CourseService
	Documents  *service.Summarizer

	RunRepo  storage.RunRepository
	CallRepo storage.VendorCallRepository
	Metrics  *metrics.Metrics

	// Files is set when images are stored on local disk.
	Files *storage.FileSystemStore

	db      *sqlx.DB
	closers []func() error
}

// Build wires the application. Missing vendor credentials disable the
// pipelines that need them with a warning; missing storage or content
// settings are fatal.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Metrics: metrics.New()}

	if err := a.openLedger(cfg.Storage.DatabasePath); err != nil {
		return nil, err
	}

	store, err := a.openStore(ctx, cfg.Storage, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	tracker := &service.Tracker{
		Runs:    a.RunRepo,
		Calls:   a.CallRepo,
		Metrics: a.Metrics,
		Limiter: service.NewVendorLimiter(cfg.Vendor.RatePerMinute),
		Logger:  logger,
	}
	timeouts := service.Timeouts{
		Content:  cfg.Timeouts.Content,
		Download: cfg.Timeouts.Download,
		Model:    cfg.Timeouts.Model,
		Storage:  cfg.Timeouts.Storage,
	}
	output := service.OutputConfig{
		APIHost:         cfg.Content.APIHost,
		ProxyPath:       cfg.Content.ProxyPath,
		ThumbnailFolder: cfg.Storage.ThumbnailFolder,
		PublicURLs:      cfg.Storage.PublicURLs,
	}

	content := provider.NewContentClient(cfg.Content.APIHost, cfg.Content.AssetPrefix, cfg.Timeouts.Content, logger)

	gemini, err := llm.NewGeminiClient(ctx, geminiConfig(cfg), logger)
	switch {
	case err == nil:
		a.Variations = service.NewVariationService(
			content,
			provider.NewThumbnailFetcher(cfg.Timeouts.Download, logger),
			gemini,
			gemini,
			store,
			tracker,
			service.VariationConfig{Output: output, DescribePrompt: cfg.Gemini.DescribePrompt, Timeouts: timeouts},
			logger,
		)
	case errors.Is(err, model.ErrConfiguration):
		logger.Warn("variation pipeline disabled", zap.Error(err))
	default:
		a.Close()
		return nil, err
	}

	openai, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		ImageModel: cfg.OpenAI.ImageModel,
	}, logger)
	if err != nil {
		logger.Warn("course and document pipelines disabled", zap.Error(err))
	} else {
		a.Courses = service.NewCourseService(
			content,
			openai,
			openai,
			service.NewImageProcessor(cfg.Image.JPEGQuality),
			store,
			tracker,
			service.CourseConfig{
				Output:       output,
				SummaryModel: cfg.OpenAI.SummaryModel,
				PromptModel:  cfg.OpenAI.PromptModel,
				Timeouts:     timeouts,
			},
			logger,
		)
		a.Documents = service.NewSummarizer(openai, tracker, service.SummarizerConfig{
			SummaryModel: cfg.OpenAI.SummaryModel,
			PromptModel:  cfg.OpenAI.PromptModel,
			TokenMax:     cfg.Summary.TokenMax,
			Timeouts:     timeouts,
		}, logger)
	}

	return a, nil
}

// ServerDeps exposes the built components to the HTTP layer. Nil service
// pointers become nil interfaces so the handlers can tell them apart.
func (a *App) ServerDeps() server.Deps {
	deps := server.Deps{
		RunRepo:  a.RunRepo,
		CallRepo: a.CallRepo,
		Metrics:  a.Metrics,
	}
	if a.Variations != nil {
		deps.Variations = a.Variations
	}
	if a.Courses != nil {
		deps.Courses = a.Courses
	}
	if a.Documents != nil {
		deps.Documents = a.Documents
	}
	if a.Files != nil {
		deps.Files = a.Files
	}
	return deps
}

// Close releases the store client and the database.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) openLedger(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	a.db = db
	a.RunRepo = storage.NewRunRepository(db)
	a.CallRepo = storage.NewVendorCallRepository(db)
	return nil
}

func (a *App) openStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.ObjectStore, error) {
	switch cfg.Provider {
	case config.ProviderGCS:
		gcs, err := storage.NewGCSStore(ctx, storage.GCSConfig{
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		return gcs, nil
	case config.ProviderS3:
		s3, err := storage.NewS3Store(storage.S3Config{
			Endpoint:      cfg.S3.Endpoint,
			Bucket:        cfg.Bucket,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Region:        cfg.S3.Region,
			UseSSL:        cfg.S3.UseSSL,
			PublicBaseURL: cfg.PublicBaseURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s3, nil
	case config.ProviderFileSystem:
		fs, err := storage.NewFileSystemStore(cfg.BaseDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		a.Files = fs
		return fs, nil
	default:
		logger.Warn("using in-memory object store, generated images are not persisted")
		return storage.NewMemoryStore(cfg.PublicBaseURL), nil
	}
}

func geminiConfig(cfg *config.Config) llm.GeminiConfig {
	return llm.GeminiConfig{
		APIKey:            cfg.Gemini.APIKey,
		Project:           cfg.Gemini.Project,
		Location:          cfg.Gemini.Location,
		CredentialsFile:   cfg.Gemini.CredentialsFile,
		VisionModel:       cfg.Gemini.VisionModel,
		ImageModel:        cfg.Gemini.ImageModel,
		MaxOutputTokens:   cfg.Gemini.MaxOutputTokens,
		NumberOfImages:    cfg.Imagen.NumberOfImages,
		AspectRatio:       cfg.Imagen.AspectRatio,
		SafetyFilterLevel: cfg.Imagen.SafetyFilterLevel,
		PersonGeneration:  cfg.Imagen.PersonGeneration,
		NegativePrompt:    cfg.Imagen.NegativePrompt,
	}
}
