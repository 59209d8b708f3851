package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/llm"
	"github.com/fleveque/thumbnail-service/internal/model"
	"github.com/fleveque/thumbnail-service/internal/provider"
	"github.com/fleveque/thumbnail-service/internal/storage"
)

// MaxImagePromptLength is the longest prompt we send to the image model.
const MaxImagePromptLength = 1000

// CourseSource resolves a course id to its hierarchy.
type CourseSource interface {
	FetchCourse(ctx context.Context, courseID string) (*model.ContentRef, error)
}

// JPEGCompressor re-encodes an image as JPEG.
type JPEGCompressor interface {
	CompressJPEG(data []byte) ([]byte, error)
}

// CourseConfig configures CourseService.
type CourseConfig struct {
	Output       OutputConfig
	SummaryModel string
	PromptModel  string
	Timeouts     Timeouts
}

// CourseService generates a fresh course image from the course's TOC.
type CourseService struct {
	courses    CourseSource
	text       llm.TextGenerator
	images     llm.SingleImageGenerator
	compressor JPEGCompressor
	store      storage.ObjectStore
	tracker    *Tracker
	cfg        CourseConfig
	logger     *zap.Logger
}

// NewCourseService wires the course image pipeline. tracker may be nil.
func NewCourseService(
	courses CourseSource,
	text llm.TextGenerator,
	images llm.SingleImageGenerator,
	compressor JPEGCompressor,
	store storage.ObjectStore,
	tracker *Tracker,
	cfg CourseConfig,
	logger *zap.Logger,
) *CourseService {
	return &CourseService{
		courses:    courses,
		text:       text,
		images:     images,
		compressor: compressor,
		store:      store,
		tracker:    tracker,
		cfg:        cfg,
		logger:     logger,
	}
}

// Generate runs: hierarchy -> summary -> image prompt -> image -> JPEG -> store.
func (s *CourseService) Generate(ctx context.Context, courseID string) (result *model.CourseImageResult, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if result != nil {
			n = 1
		}
		s.tracker.finishRun(ctx, model.RunCourse, courseID, start, n, err)
	}()

	var ref *model.ContentRef
	err = s.tracker.stage(ctx, "content", s.cfg.Timeouts.Content, func(ctx context.Context) (err error) {
		ref, err = s.courses.FetchCourse(ctx, courseID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching course %s: %w", courseID, err)
	}

	summary, err := s.Summarize(ctx, ref)
	if err != nil {
		return nil, err
	}

	prompt, err := s.PromptFromSummary(ctx, ref.ID, summary)
	if err != nil {
		return nil, err
	}

	var img *model.ImageAsset
	err = s.tracker.vendorCall(ctx, ref.ID, "generate_image", s.images.ProviderName(), s.images.ImageModelName(), s.cfg.Timeouts.Model,
		func(ctx context.Context) (err error) {
			img, err = s.images.GenerateImage(ctx, prompt)
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("generating course image: %w", err)
	}

	compressed, err := s.compressor.CompressJPEG(img.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrGeneration, err)
	}

	filename := courseFilename(ref.Name) + ".jpg"
	url, err := storeImage(ctx, s.tracker, s.store, s.cfg.Output, s.cfg.Timeouts.Storage, ref.ID, filename,
		model.ImageAsset{MimeType: model.MimeJPEG, Data: compressed}, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.Info("generated course image",
		zap.String("course_id", courseID),
		zap.String("url", url),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.CourseImageResult{
		FinalSummary: summary,
		ImagePrompt:  prompt,
		ImageURL:     url,
	}, nil
}

// Summarize asks the summary model to describe the course from its title,
// description and TOC.
func (s *CourseService) Summarize(ctx context.Context, ref *model.ContentRef) (string, error) {
	prompt := render(courseSummaryTemplate, struct {
		Title, Description, TOC string
	}{ref.Name, ref.Description, provider.FormatTOC(ref.TOC)})

	res, err := s.complete(ctx, ref.ID, "summary", s.cfg.SummaryModel, prompt)
	if err != nil {
		return "", fmt.Errorf("summarizing course: %w", err)
	}
	return res, nil
}

// PromptFromSummary turns a summary into an image prompt, capped at
// MaxImagePromptLength characters.
func (s *CourseService) PromptFromSummary(ctx context.Context, contentID, summary string) (string, error) {
	res, err := s.complete(ctx, contentID, "image_prompt", s.cfg.PromptModel, render(coursePromptTemplate, summary))
	if err != nil {
		return "", fmt.Errorf("generating image prompt: %w", err)
	}
	return truncateRunes(res, MaxImagePromptLength), nil
}

func (s *CourseService) complete(ctx context.Context, contentID, stage, modelName, prompt string) (string, error) {
	var res *llm.TextResult
	err := s.tracker.vendorCall(ctx, contentID, stage, s.text.ProviderName(), modelName, s.cfg.Timeouts.Model,
		func(ctx context.Context) (err error) {
			res, err = s.text.Complete(ctx, modelName, prompt)
			return err
		})
	if err != nil {
		return "", err
	}
	if res.Text == "" {
		return "", fmt.Errorf("%w: %s returned empty text", model.ErrGeneration, stage)
	}
	return res.Text, nil
}

// courseFilename slugs the course name. Names with no usable characters get a UUID.
func courseFilename(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
