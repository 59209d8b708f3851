package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/thumbnail-service/internal/model"
)

// ErrNotFound is returned when a record or object does not exist.
var ErrNotFound = errors.New("not found")

// RunRepository records generation runs for the admin stats endpoint.
type RunRepository interface {
	Create(ctx context.Context, run *model.GenerationRun) error
	GetByID(ctx context.Context, id int64) (*model.GenerationRun, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.RunStatus) (int64, error)
	CountByKind(ctx context.Context, kind model.RunKind) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.GenerationRun, error)
}

type sqliteRunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a SQLite-backed RunRepository.
func NewRunRepository(db *sqlx.DB) RunRepository {
	return &sqliteRunRepository{db: db}
}

func (r *sqliteRunRepository) Create(ctx context.Context, run *model.GenerationRun) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO generation_runs (kind, content_id, status, image_count, error_message, duration_ms)
		VALUES (:kind, :content_id, :status, :image_count, :error_message, :duration_ms)
	`, run)
	if err != nil {
		return fmt.Errorf("creating generation run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	run.ID = id
	return nil
}

func (r *sqliteRunRepository) GetByID(ctx context.Context, id int64) (*model.GenerationRun, error) {
	var run model.GenerationRun
	err := r.db.GetContext(ctx, &run, "SELECT * FROM generation_runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting generation run %d: %w", id, err)
	}
	return &run, nil
}

func (r *sqliteRunRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM generation_runs")
	return count, err
}

func (r *sqliteRunRepository) CountByStatus(ctx context.Context, status model.RunStatus) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM generation_runs WHERE status = ?", status)
	return count, err
}

func (r *sqliteRunRepository) CountByKind(ctx context.Context, kind model.RunKind) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM generation_runs WHERE kind = ?", kind)
	return count, err
}

func (r *sqliteRunRepository) ListRecent(ctx context.Context, limit int) ([]model.GenerationRun, error) {
	var runs []model.GenerationRun
	err := r.db.SelectContext(ctx, &runs,
		"SELECT * FROM generation_runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing generation runs: %w", err)
	}
	return runs, nil
}

// VendorCallRepository tracks every model call for cost monitoring.
type VendorCallRepository interface {
	Create(ctx context.Context, call *model.VendorCall) error
	CountByContent(ctx context.Context, contentID string) (int64, error)
	CountByProvider(ctx context.Context) (map[string]int64, error)
}

type sqliteVendorCallRepository struct {
	db *sqlx.DB
}

// NewVendorCallRepository creates a SQLite-backed VendorCallRepository.
func NewVendorCallRepository(db *sqlx.DB) VendorCallRepository {
	return &sqliteVendorCallRepository{db: db}
}

func (r *sqliteVendorCallRepository) Create(ctx context.Context, call *model.VendorCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO vendor_calls (content_id, stage, provider, model, success, duration_ms)
		VALUES (:content_id, :stage, :provider, :model, :success, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating vendor call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteVendorCallRepository) CountByContent(ctx context.Context, contentID string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM vendor_calls WHERE content_id = ?", contentID)
	return count, err
}

func (r *sqliteVendorCallRepository) CountByProvider(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Provider string `db:"provider"`
		Count    int64  `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows,
		"SELECT provider, COUNT(*) AS count FROM vendor_calls GROUP BY provider")
	if err != nil {
		return nil, fmt.Errorf("counting vendor calls: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Provider] = row.Count
	}
	return counts, nil
}
