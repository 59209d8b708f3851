package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/model"
)

// OpenAIConfig configures the OpenAI client. BaseURL is only set in tests
// or when routing through a proxy.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	ImageModel string
}

// OpenAIClient implements TextGenerator and SingleImageGenerator.
type OpenAIClient struct {
	client     *openai.Client
	imageModel string
	logger     *zap.Logger
}

// NewOpenAIClient creates a client. A missing API key is a configuration error.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is required", model.ErrConfiguration)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = openai.CreateImageModelDallE3
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(clientCfg),
		imageModel: imageModel,
		logger:     logger,
	}, nil
}

func (o *OpenAIClient) ProviderName() string   { return "openai" }
func (o *OpenAIClient) ImageModelName() string { return o.imageModel }

// Complete sends prompt as a single user message at temperature 0.
func (o *OpenAIClient) Complete(ctx context.Context, modelName, prompt string) (*TextResult, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		// Temperature is omitempty, so a literal 0 would fall back to the API default.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai completion: %v", model.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", model.ErrGeneration)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	o.logger.Debug("openai completion",
		zap.String("model", modelName),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return &TextResult{Text: text, Provider: o.ProviderName(), Model: modelName}, nil
}

// GenerateImage renders a single 1024x1024 image. The prompt is wrapped
// with guidelines that keep text and people out of the picture.
func (o *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (*model.ImageAsset, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         fmt.Sprintf(dallEPromptWrapper, prompt),
		Model:          o.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai image: %v", model.ErrGeneration, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: openai returned no image data", model.ErrGeneration)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image data: %v", model.ErrParse, err)
	}

	return &model.ImageAsset{MimeType: model.MimePNG, Data: data}, nil
}
