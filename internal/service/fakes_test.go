package service

import (
	"context"
	"strings"
	"sync"

	"github.com/fleveque/thumbnail-service/internal/llm"
	"github.com/fleveque/thumbnail-service/internal/media"
	"github.com/fleveque/thumbnail-service/internal/model"
	"github.com/fleveque/thumbnail-service/internal/storage"
)

type fakeContent struct {
	ref *model.ContentRef
	err error
	// poster overrides the rewritten poster URL.
	poster   string
	fetched  []string
	courseID string
}

func (f *fakeContent) FetchContent(ctx context.Context, contentID string) (*model.ContentRef, error) {
	f.fetched = append(f.fetched, contentID)
	if f.err != nil {
		return nil, f.err
	}
	return f.ref, nil
}

func (f *fakeContent) FetchCourse(ctx context.Context, courseID string) (*model.ContentRef, error) {
	f.courseID = courseID
	if f.err != nil {
		return nil, f.err
	}
	return f.ref, nil
}

func (f *fakeContent) PosterURL(ref *model.ContentRef) (string, error) {
	if ref.PosterImage == "" {
		return "", model.ErrUpstream
	}
	if f.poster != "" {
		return f.poster, nil
	}
	return media.FormatStorageURL(ref.PosterImage, ""), nil
}

type fakeFetcher struct {
	asset *model.ImageAsset
	err   error
	url   string
	// block waits for context cancellation before returning.
	block bool
}

func (f *fakeFetcher) Download(ctx context.Context, url string) (*model.ImageAsset, error) {
	f.url = url
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.asset, nil
}

type fakeVision struct {
	logos       llm.LogoList
	logosErr    error
	description string
	describeErr error
	instruction string
}

func (f *fakeVision) Describe(ctx context.Context, img model.ImageAsset, instruction string) (*llm.TextResult, error) {
	f.instruction = instruction
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &llm.TextResult{Text: f.description, Provider: "gemini", Model: "vision"}, nil
}

func (f *fakeVision) DetectLogos(ctx context.Context, img model.ImageAsset) (llm.LogoList, error) {
	if f.logosErr != nil {
		return nil, f.logosErr
	}
	return f.logos, nil
}

func (f *fakeVision) ProviderName() string { return "gemini" }
func (f *fakeVision) ModelName() string    { return "vision" }

type fakeImages struct {
	batch  llm.ImageBatch
	err    error
	prompt string
}

func (f *fakeImages) GenerateImages(ctx context.Context, prompt string) (llm.ImageBatch, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

func (f *fakeImages) ProviderName() string   { return "gemini" }
func (f *fakeImages) ImageModelName() string { return "imagen" }

// fakeText answers prompts by prefix. Unmatched prompts echo a fixed reply.
type fakeText struct {
	mu      sync.Mutex
	replies map[string]string
	fail    map[string]error
	prompts []string
	models  []string
}

func (f *fakeText) Complete(ctx context.Context, modelName, prompt string) (*llm.TextResult, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, modelName)
	f.mu.Unlock()

	for marker, err := range f.fail {
		if strings.Contains(prompt, marker) {
			return nil, err
		}
	}
	for marker, reply := range f.replies {
		if strings.Contains(prompt, marker) {
			return &llm.TextResult{Text: reply, Provider: "openai", Model: modelName}, nil
		}
	}
	return &llm.TextResult{Text: "reply", Provider: "openai", Model: modelName}, nil
}

func (f *fakeText) ProviderName() string { return "openai" }

type fakeImage struct {
	asset  *model.ImageAsset
	err    error
	prompt string
}

func (f *fakeImage) GenerateImage(ctx context.Context, prompt string) (*model.ImageAsset, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.asset, nil
}

func (f *fakeImage) ProviderName() string   { return "openai" }
func (f *fakeImage) ImageModelName() string { return "dall-e-3" }

type fakeCompressor struct {
	err error
}

func (f fakeCompressor) CompressJPEG(data []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("jpeg:"), data...), nil
}

type fakeRuns struct {
	storage.RunRepository
	mu   sync.Mutex
	runs []model.GenerationRun
}

func (f *fakeRuns) Create(ctx context.Context, run *model.GenerationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

type fakeCalls struct {
	storage.VendorCallRepository
	mu    sync.Mutex
	calls []model.VendorCall
}

func (f *fakeCalls) Create(ctx context.Context, call *model.VendorCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, *call)
	return nil
}

func (f *fakeCalls) stages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Stage
	}
	return out
}
