package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fleveque/thumbnail-service/internal/llm"
	"github.com/fleveque/thumbnail-service/internal/model"
)

// DefaultTokenMax bounds the combined length of summaries collapsed together.
const DefaultTokenMax = 1000

// ErrDocumentTooLong means a single summary exceeds the collapse budget and
// cannot be grouped at all.
var ErrDocumentTooLong = fmt.Errorf("%w: a single document exceeds the token budget", model.ErrGeneration)

// documentsID labels ledger rows for multi-document runs, which have no content id.
const documentsID = "documents"

// SummarizerConfig configures Summarizer.
type SummarizerConfig struct {
	SummaryModel string
	PromptModel  string
	TokenMax     int
	Timeouts     Timeouts
}

// Summarizer condenses many documents into one summary with a map-reduce:
// summarize each document, collapse the summaries in length-bounded
// groups, then reduce the groups into a final summary.
type Summarizer struct {
	text    llm.TextGenerator
	tracker *Tracker
	cfg     SummarizerConfig
	logger  *zap.Logger
}

// NewSummarizer creates a Summarizer. tracker may be nil.
func NewSummarizer(text llm.TextGenerator, tracker *Tracker, cfg SummarizerConfig, logger *zap.Logger) *Summarizer {
	if cfg.TokenMax <= 0 {
		cfg.TokenMax = DefaultTokenMax
	}
	return &Summarizer{text: text, tracker: tracker, cfg: cfg, logger: logger}
}

// Generate summarizes documents and derives an image prompt from the result.
func (s *Summarizer) Generate(ctx context.Context, documents []string) (result *model.DocumentSummaryResult, err error) {
	start := time.Now()
	defer func() {
		s.tracker.finishRun(ctx, model.RunDocuments, documentsID, start, 0, err)
	}()

	summary, err := s.Summarize(ctx, documents)
	if err != nil {
		return nil, err
	}

	prompt, err := s.complete(ctx, "image_prompt", s.cfg.PromptModel, render(documentsPromptTemplate, summary))
	if err != nil {
		return nil, fmt.Errorf("generating image prompt: %w", err)
	}

	return &model.DocumentSummaryResult{
		FinalSummary: summary,
		ImagePrompt:  truncateRunes(prompt, MaxImagePromptLength),
	}, nil
}

// Summarize runs the map, collapse and reduce steps.
func (s *Summarizer) Summarize(ctx context.Context, documents []string) (string, error) {
	if len(documents) == 0 {
		return "", fmt.Errorf("%w: no documents to summarize", model.ErrGeneration)
	}

	summaries, err := s.mapAll(ctx, documents, func(doc string) string {
		return render(mapTemplate, doc)
	}, "map")
	if err != nil {
		return "", err
	}

	groups, err := SplitByLength(summaries, s.cfg.TokenMax)
	if err != nil {
		return "", err
	}

	joined := make([]string, len(groups))
	for i, g := range groups {
		joined[i] = strings.Join(g, "\n\n")
	}
	collapsed, err := s.mapAll(ctx, joined, func(docs string) string {
		return render(reduceTemplate, docs)
	}, "collapse")
	if err != nil {
		return "", err
	}

	s.logger.Debug("collapsed summaries",
		zap.Int("documents", len(documents)),
		zap.Int("groups", len(groups)),
	)

	final, err := s.complete(ctx, "reduce", s.cfg.SummaryModel, render(reduceTemplate, strings.Join(collapsed, "\n\n")))
	if err != nil {
		return "", fmt.Errorf("reducing summaries: %w", err)
	}
	return final, nil
}

// mapAll completes one prompt per input concurrently. Results keep the
// input order; the first failure cancels the rest.
func (s *Summarizer) mapAll(ctx context.Context, inputs []string, prompt func(string) string, stage string) ([]string, error) {
	out := make([]string, len(inputs))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, in := range inputs {
		eg.Go(func() error {
			res, err := s.complete(egCtx, stage, s.cfg.SummaryModel, prompt(in))
			if err != nil {
				return fmt.Errorf("%s step %d: %w", stage, i, err)
			}
			out[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Summarizer) complete(ctx context.Context, stage, modelName, prompt string) (string, error) {
	var res *llm.TextResult
	err := s.tracker.vendorCall(ctx, documentsID, stage, s.text.ProviderName(), modelName, s.cfg.Timeouts.Model,
		func(ctx context.Context) (err error) {
			res, err = s.text.Complete(ctx, modelName, prompt)
			return err
		})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", fmt.Errorf("%w: %s returned empty text", model.ErrGeneration, stage)
	}
	return res.Text, nil
}

// SplitByLength partitions docs into insertion-ordered groups whose
// combined length stays within max. A document that alone exceeds max
// cannot be placed and yields ErrDocumentTooLong.
func SplitByLength(docs []string, max int) ([][]string, error) {
	var groups [][]string
	var current []string
	size := 0

	for _, doc := range docs {
		current = append(current, doc)
		size += len(doc)
		if size <= max {
			continue
		}
		if len(current) == 1 {
			return nil, errors.Join(ErrDocumentTooLong, fmt.Errorf("document of length %d, budget %d", len(doc), max))
		}
		groups = append(groups, current[:len(current)-1])
		current = []string{doc}
		size = len(doc)
		if size > max {
			return nil, errors.Join(ErrDocumentTooLong, fmt.Errorf("document of length %d, budget %d", len(doc), max))
		}
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups, nil
}
