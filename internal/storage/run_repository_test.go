package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fleveque/thumbnail-service/internal/model"
)

// setupTestDB creates a temporary SQLite database, removed with t.TempDir.
func setupTestDB(t *testing.T) *testDeps {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &testDeps{
		runRepo:  NewRunRepository(db),
		callRepo: NewVendorCallRepository(db),
	}
}

type testDeps struct {
	runRepo  RunRepository
	callRepo VendorCallRepository
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	msg := "imagen returned no images"
	run := &model.GenerationRun{
		Kind:         model.RunVariation,
		ContentID:    "do_123",
		Status:       model.RunFailed,
		ErrorMessage: &msg,
		DurationMs:   1200,
	}
	if err := deps.runRepo.Create(ctx, run); err != nil {
		t.Fatalf("creating run: %v", err)
	}
	if run.ID == 0 {
		t.Error("expected run ID to be set after create")
	}

	got, err := deps.runRepo.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("getting run: %v", err)
	}
	if got.ContentID != "do_123" || got.Kind != model.RunVariation || got.Status != model.RunFailed {
		t.Errorf("unexpected run %+v", got)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != msg {
		t.Errorf("expected error message %q, got %v", msg, got.ErrorMessage)
	}
}

func TestRunRepository_GetByID_NotFound(t *testing.T) {
	deps := setupTestDB(t)

	_, err := deps.runRepo.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunRepository_Counts(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	runs := []struct {
		kind   model.RunKind
		status model.RunStatus
	}{
		{model.RunVariation, model.RunSucceeded},
		{model.RunVariation, model.RunFailed},
		{model.RunCourse, model.RunSucceeded},
		{model.RunDocuments, model.RunSucceeded},
	}
	for i, r := range runs {
		run := &model.GenerationRun{Kind: r.kind, Status: r.status, ContentID: "do_" + string(rune('a'+i))}
		if err := deps.runRepo.Create(ctx, run); err != nil {
			t.Fatalf("creating run %d: %v", i, err)
		}
	}

	total, err := deps.runRepo.Count(ctx)
	if err != nil || total != 4 {
		t.Errorf("expected 4 runs, got %d (%v)", total, err)
	}

	succeeded, err := deps.runRepo.CountByStatus(ctx, model.RunSucceeded)
	if err != nil || succeeded != 3 {
		t.Errorf("expected 3 succeeded, got %d (%v)", succeeded, err)
	}

	variations, err := deps.runRepo.CountByKind(ctx, model.RunVariation)
	if err != nil || variations != 2 {
		t.Errorf("expected 2 variation runs, got %d (%v)", variations, err)
	}

	recent, err := deps.runRepo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(recent) != 2 || recent[0].Kind != model.RunDocuments {
		t.Errorf("expected newest first, got %+v", recent)
	}
}

func TestVendorCallRepository(t *testing.T) {
	deps := setupTestDB(t)
	ctx := context.Background()

	duration := int64(850)
	calls := []*model.VendorCall{
		{ContentID: "do_1", Stage: "describe", Provider: "gemini", Model: "gemini-1.5-pro", Success: true, DurationMs: &duration},
		{ContentID: "do_1", Stage: "generate", Provider: "gemini", Model: "imagen-3.0", Success: true},
		{ContentID: "do_2", Stage: "summary", Provider: "openai", Model: "gpt-4o-mini", Success: false},
	}
	for _, call := range calls {
		if err := deps.callRepo.Create(ctx, call); err != nil {
			t.Fatalf("creating call: %v", err)
		}
		if call.ID == 0 {
			t.Error("expected call ID to be set after create")
		}
	}

	count, err := deps.callRepo.CountByContent(ctx, "do_1")
	if err != nil || count != 2 {
		t.Errorf("expected 2 calls for do_1, got %d (%v)", count, err)
	}

	byProvider, err := deps.callRepo.CountByProvider(ctx)
	if err != nil {
		t.Fatalf("counting by provider: %v", err)
	}
	if byProvider["gemini"] != 2 || byProvider["openai"] != 1 {
		t.Errorf("unexpected counts %v", byProvider)
	}
}
