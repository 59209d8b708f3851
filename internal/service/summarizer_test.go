package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/llm"
	"github.com/fleveque/thumbnail-service/internal/model"
)

// funcText answers every prompt with fn.
type funcText struct {
	mu    sync.Mutex
	fn    func(prompt string) (string, error)
	calls int
}

func (f *funcText) Complete(ctx context.Context, modelName, prompt string) (*llm.TextResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	text, err := f.fn(prompt)
	if err != nil {
		return nil, err
	}
	return &llm.TextResult{Text: text, Model: modelName}, nil
}

func (f *funcText) ProviderName() string { return "openai" }

// summaryOf strips the map template so each document maps to "S(doc)".
func summaryOf(prompt string) (string, error) {
	const mapPrefix = "Write a concise summary of the following: "
	switch {
	case strings.HasPrefix(prompt, mapPrefix):
		doc := strings.TrimSuffix(strings.TrimPrefix(prompt, mapPrefix), ".")
		return "S(" + doc + ")", nil
	case strings.Contains(prompt, "set of summaries"):
		body := strings.SplitN(prompt, "summaries:\n", 2)[1]
		body = strings.SplitN(body, "\nTake these", 2)[0]
		return "R[" + strings.ReplaceAll(body, "\n\n", "|") + "]", nil
	case strings.Contains(prompt, "Generate a short prompt"):
		return "an abstract collage", nil
	}
	return "", errors.New("unexpected prompt")
}

func TestSplitByLength(t *testing.T) {
	groups, err := SplitByLength([]string{"aaaa", "bbb", "cc", "dddddd", "e"}, 7)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"aaaa", "bbb"}, {"cc"}, {"dddddd", "e"}}, groups)

	groups, err = SplitByLength(nil, 7)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSplitByLength_TooLong(t *testing.T) {
	_, err := SplitByLength([]string{"ok", "this one is far too long"}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDocumentTooLong)
	assert.ErrorIs(t, err, model.ErrGeneration)

	_, err = SplitByLength([]string{"this one is far too long"}, 5)
	assert.ErrorIs(t, err, ErrDocumentTooLong)
}

func TestSummarizer_Summarize(t *testing.T) {
	text := &funcText{fn: summaryOf}
	s := NewSummarizer(text, nil, SummarizerConfig{TokenMax: 10}, zap.NewNop())

	summary, err := s.Summarize(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)

	// Map: S(one)=6, S(two)=6, S(three)=8 -> one summary per group at max 10.
	assert.Equal(t, "R[R[S(one)]|R[S(two)]|R[S(three)]]", summary)
	assert.Equal(t, 7, text.calls)
}

func TestSummarizer_KeepsOrderWhenGrouped(t *testing.T) {
	text := &funcText{fn: summaryOf}
	s := NewSummarizer(text, nil, SummarizerConfig{TokenMax: 100}, zap.NewNop())

	summary, err := s.Summarize(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, "R[R[S(a)|S(b)|S(c)|S(d)]]", summary)
}

func TestSummarizer_Empty(t *testing.T) {
	s := NewSummarizer(&funcText{fn: summaryOf}, nil, SummarizerConfig{}, zap.NewNop())

	_, err := s.Summarize(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrGeneration)
}

func TestSummarizer_MapFailure(t *testing.T) {
	text := &funcText{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "bad") {
			return "", model.ErrGeneration
		}
		return summaryOf(prompt)
	}}
	s := NewSummarizer(text, nil, SummarizerConfig{}, zap.NewNop())

	_, err := s.Summarize(context.Background(), []string{"good", "bad"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrGeneration)
	assert.Contains(t, err.Error(), "map step 1")
}

func TestSummarizer_EmptyModelReply(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"map", "Write a concise summary"},
		{"reduce", "set of summaries"},
		{"image prompt", "Generate a short prompt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := &fakeRuns{}
			text := &funcText{fn: func(prompt string) (string, error) {
				if strings.Contains(prompt, tt.marker) {
					return "  ", nil
				}
				return summaryOf(prompt)
			}}
			s := NewSummarizer(text, &Tracker{Runs: runs, Calls: &fakeCalls{}}, SummarizerConfig{}, zap.NewNop())

			result, err := s.Generate(context.Background(), []string{"first doc", "second doc"})
			assert.Nil(t, result)
			assert.ErrorIs(t, err, model.ErrGeneration)

			require.Len(t, runs.runs, 1)
			assert.Equal(t, model.RunFailed, runs.runs[0].Status)
		})
	}
}

func TestSummarizer_Generate(t *testing.T) {
	runs := &fakeRuns{}
	calls := &fakeCalls{}
	text := &funcText{fn: summaryOf}
	s := NewSummarizer(text, &Tracker{Runs: runs, Calls: calls}, SummarizerConfig{
		SummaryModel: "gpt-4o-mini",
		PromptModel:  "gpt-4o",
	}, zap.NewNop())

	result, err := s.Generate(context.Background(), []string{"first doc", "second doc"})
	require.NoError(t, err)

	assert.Equal(t, "R[R[S(first doc)|S(second doc)]]", result.FinalSummary)
	assert.Equal(t, "an abstract collage", result.ImagePrompt)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, model.RunDocuments, runs.runs[0].Kind)
	assert.Equal(t, model.RunSucceeded, runs.runs[0].Status)

	stages := calls.stages()
	assert.Equal(t, "image_prompt", stages[len(stages)-1])
	assert.Len(t, stages, 5)
}
