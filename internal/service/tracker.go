package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleveque/thumbnail-service/internal/metrics"
	"github.com/fleveque/thumbnail-service/internal/model"
	"github.com/fleveque/thumbnail-service/internal/storage"
)

// Timeouts bounds each kind of outbound call. A zero value means no
// per-stage deadline beyond the request context.
type Timeouts struct {
	Content  time.Duration
	Download time.Duration
	Model    time.Duration
	Storage  time.Duration
}

// Tracker times pipeline stages and records them in metrics and the run
// ledger. Every field is optional; a zero Tracker only applies timeouts.
type Tracker struct {
	Runs    storage.RunRepository
	Calls   storage.VendorCallRepository
	Metrics *metrics.Metrics
	// Limiter throttles model calls to keep vendor spend bounded.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// NewVendorLimiter converts a per-minute budget into a limiter with burst 1.
// Zero or negative disables throttling.
func NewVendorLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func (t *Tracker) logger() *zap.Logger {
	if t == nil || t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

// stage runs fn under its own deadline and records its duration.
func (t *Tracker) stage(ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	stageCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(stageCtx)
	if err != nil && errors.Is(stageCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("stage %s timed out after %s: %w", name, timeout, err)
	}

	if t != nil {
		t.Metrics.ObserveStage(name, start, err)
	}
	return err
}

// vendorCall is a stage that hits a model vendor. The limiter wait counts
// against the stage timeout and a vendor_calls row is written whatever the
// outcome.
func (t *Tracker) vendorCall(ctx context.Context, contentID, name, provider, modelName string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := t.stage(ctx, name, timeout, func(ctx context.Context) error {
		if t != nil && t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%w: vendor rate limit wait: %v", model.ErrGeneration, err)
			}
		}
		return fn(ctx)
	})

	if t != nil && t.Calls != nil {
		durationMs := time.Since(start).Milliseconds()
		call := &model.VendorCall{
			ContentID:  contentID,
			Stage:      name,
			Provider:   provider,
			Model:      modelName,
			Success:    err == nil,
			DurationMs: &durationMs,
		}
		// Ledger failures never fail the request.
		if recErr := t.Calls.Create(context.WithoutCancel(ctx), call); recErr != nil {
			t.logger().Warn("recording vendor call", zap.String("stage", name), zap.Error(recErr))
		}
	}
	return err
}

// finishRun writes a generation_runs row for a completed pipeline.
func (t *Tracker) finishRun(ctx context.Context, kind model.RunKind, contentID string, start time.Time, images int, runErr error) {
	if t == nil {
		return
	}
	if runErr == nil {
		t.Metrics.AddImages(string(kind), images)
	}
	if t.Runs == nil {
		return
	}

	run := &model.GenerationRun{
		Kind:       kind,
		ContentID:  contentID,
		Status:     model.RunSucceeded,
		ImageCount: images,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Status = model.RunFailed
		run.ErrorMessage = &msg
	}
	if err := t.Runs.Create(context.WithoutCancel(ctx), run); err != nil {
		t.logger().Warn("recording generation run", zap.String("content_id", contentID), zap.Error(err))
	}
}
