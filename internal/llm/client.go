// Package llm wraps the model vendors the pipelines call: Gemini for vision
// (describe, logo detection) and Imagen for variations, OpenAI for text
// (summaries, prompts) and DALL-E for course images.
//
// Each capability is a small interface so services can be tested with fakes.
package llm

import (
	"context"

	"github.com/fleveque/thumbnail-service/internal/model"
)

// TextResult is the verbatim text a model returned.
type TextResult struct {
	Text     string
	Provider string
	Model    string
}

// LogoList is the structured output of logo detection. It is empty when the
// model found nothing.
type LogoList []model.LogoEntry

// ImageBatch is the ordered output of an image generation call.
type ImageBatch []model.ImageAsset

// Vision describes an image and detects logos in it.
type Vision interface {
	Describe(ctx context.Context, img model.ImageAsset, instruction string) (*TextResult, error)
	DetectLogos(ctx context.Context, img model.ImageAsset) (LogoList, error)
	ProviderName() string
	ModelName() string
}

// ImageGenerator produces a batch of images from a text prompt.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string) (ImageBatch, error)
	ProviderName() string
	ImageModelName() string
}

// TextGenerator completes a single-turn prompt on the given model.
type TextGenerator interface {
	Complete(ctx context.Context, modelName, prompt string) (*TextResult, error)
	ProviderName() string
}

// SingleImageGenerator produces exactly one image from a prompt.
type SingleImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*model.ImageAsset, error)
	ProviderName() string
	ImageModelName() string
}
