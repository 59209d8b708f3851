package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/auth/credentials"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fleveque/thumbnail-service/internal/model"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// GeminiConfig holds everything the Gemini client needs. Either APIKey
// (Gemini API backend) or Project (Vertex AI backend) must be set.
type GeminiConfig struct {
	APIKey          string
	Project         string
	Location        string
	CredentialsFile string

	VisionModel     string
	ImageModel      string
	MaxOutputTokens int32

	NumberOfImages    int32
	AspectRatio       string
	SafetyFilterLevel string
	PersonGeneration  string
	NegativePrompt    string
}

// generativeModels is the subset of *genai.Models we call. Tests swap in a fake.
type generativeModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// GeminiClient implements Vision and ImageGenerator on top of the genai SDK.
type GeminiClient struct {
	models generativeModels
	cfg    GeminiConfig
	logger *zap.Logger
}

// NewGeminiClient builds a genai client for the configured backend. The
// handle is created once and shared by all requests.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	clientCfg := &genai.ClientConfig{}

	switch {
	case cfg.APIKey != "":
		clientCfg.APIKey = cfg.APIKey
		clientCfg.Backend = genai.BackendGeminiAPI
	case cfg.Project != "":
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
		clientCfg.Backend = genai.BackendVertexAI

		if cfg.CredentialsFile != "" {
			creds, err := credentials.DetectDefault(&credentials.DetectOptions{
				Scopes:          []string{cloudPlatformScope},
				CredentialsFile: cfg.CredentialsFile,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: loading gemini credentials: %v", model.ErrConfiguration, err)
			}
			clientCfg.Credentials = creds
		}
	default:
		return nil, fmt.Errorf("%w: gemini needs an api key or a project id", model.ErrConfiguration)
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: creating genai client: %v", model.ErrConfiguration, err)
	}

	return newGeminiClient(client.Models, cfg, logger), nil
}

func newGeminiClient(models generativeModels, cfg GeminiConfig, logger *zap.Logger) *GeminiClient {
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 512
	}
	if cfg.NumberOfImages <= 0 {
		cfg.NumberOfImages = 1
	}
	if strings.TrimSpace(cfg.NegativePrompt) == "" {
		cfg.NegativePrompt = DefaultNegativePrompt
	}
	return &GeminiClient{models: models, cfg: cfg, logger: logger}
}

func (g *GeminiClient) ProviderName() string   { return "gemini" }
func (g *GeminiClient) ModelName() string      { return g.cfg.VisionModel }
func (g *GeminiClient) ImageModelName() string { return g.cfg.ImageModel }

// Describe sends the image inline with the instruction and returns the
// model's text verbatim.
func (g *GeminiClient) Describe(ctx context.Context, img model.ImageAsset, instruction string) (*TextResult, error) {
	contents := []*genai.Content{imageContent(img, instruction)}

	resp, err := g.models.GenerateContent(ctx, g.cfg.VisionModel, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: g.cfg.MaxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini describe: %v", model.ErrGeneration, err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: gemini describe returned no text", model.ErrGeneration)
	}

	g.logger.Info("generated description", zap.String("model", g.cfg.VisionModel), zap.Int("chars", len(text)))

	return &TextResult{Text: text, Provider: g.ProviderName(), Model: g.cfg.VisionModel}, nil
}

// DetectLogos asks for a JSON array of logos. Malformed JSON is a parse
// error; an empty reply means no logos.
func (g *GeminiClient) DetectLogos(ctx context.Context, img model.ImageAsset) (LogoList, error) {
	contents := []*genai.Content{imageContent(img, logoDetectionPrompt)}

	resp, err := g.models.GenerateContent(ctx, g.cfg.VisionModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(logoSystemInstruction, genai.RoleUser),
		MaxOutputTokens:   8192,
		Temperature:       genai.Ptr[float32](1),
		TopP:              genai.Ptr[float32](0.95),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    logoSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini logo detection: %v", model.ErrGeneration, err)
	}

	text := strings.TrimSpace(responseText(resp))
	g.logger.Debug("logo detection", zap.String("response", text))

	return parseLogoList(text)
}

// GenerateImages calls Imagen once. Images withheld by the safety filter are
// skipped, so the batch may be shorter than requested but never empty.
func (g *GeminiClient) GenerateImages(ctx context.Context, prompt string) (ImageBatch, error) {
	resp, err := g.models.GenerateImages(ctx, g.cfg.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages:    g.cfg.NumberOfImages,
		AspectRatio:       g.cfg.AspectRatio,
		SafetyFilterLevel: SafetyFilterLevel(g.cfg.SafetyFilterLevel),
		PersonGeneration:  genai.PersonGeneration(strings.ToUpper(g.cfg.PersonGeneration)),
		NegativePrompt:    g.cfg.NegativePrompt,
		IncludeRAIReason:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: imagen: %v", model.ErrGeneration, err)
	}

	var batch ImageBatch
	for i, gen := range resp.GeneratedImages {
		if gen == nil || gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
			reason := ""
			if gen != nil {
				reason = gen.RAIFilteredReason
			}
			g.logger.Warn("imagen returned no bytes", zap.Int("index", i), zap.String("reason", reason))
			continue
		}

		mime := model.MimeType(gen.Image.MIMEType)
		if mime == "" {
			mime = model.MimePNG
		}
		batch = append(batch, model.ImageAsset{MimeType: mime, Data: gen.Image.ImageBytes})
	}

	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: imagen returned no images", model.ErrGeneration)
	}
	return batch, nil
}

// SafetyFilterLevel accepts both the API enum names and the older
// block_most/block_some/block_few/block_fewest aliases.
func SafetyFilterLevel(level string) genai.SafetyFilterLevel {
	switch strings.ToLower(level) {
	case "block_most":
		return genai.SafetyFilterLevelBlockLowAndAbove
	case "block_some":
		return genai.SafetyFilterLevelBlockMediumAndAbove
	case "block_few":
		return genai.SafetyFilterLevelBlockOnlyHigh
	case "block_fewest":
		return genai.SafetyFilterLevelBlockNone
	}
	return genai.SafetyFilterLevel(strings.ToUpper(level))
}

func imageContent(img model.ImageAsset, text string) *genai.Content {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: string(img.MimeType), Data: img.Data}},
		genai.NewPartFromText(text),
	}
	return genai.NewContentFromParts(parts, genai.RoleUser)
}

// responseText concatenates the text parts of the first candidate, skipping
// thought summaries.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func parseLogoList(text string) (LogoList, error) {
	if text == "" {
		return LogoList{}, nil
	}
	var logos LogoList
	if err := json.Unmarshal([]byte(text), &logos); err != nil {
		return nil, fmt.Errorf("%w: logo detection output: %v", model.ErrParse, err)
	}
	if logos == nil {
		logos = LogoList{}
	}
	return logos, nil
}

func logoSchema() *genai.Schema {
	number := &genai.Schema{Type: genai.TypeNumber}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"logo_name": {Type: genai.TypeString},
				"position": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"x":      number,
						"y":      number,
						"width":  number,
						"height": number,
					},
				},
				"confidence_score": number,
			},
		},
	}
}
