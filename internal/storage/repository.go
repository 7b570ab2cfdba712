// Package storage persists screening runs to Postgres.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("screening run not found")

// Run is one persisted screening run header.
type Run struct {
	ID        int64                      `json:"id"`
	Summary   contracts.ScreeningSummary `json:"summary"`
	CreatedAt time.Time                  `json:"created_at"`
}

// Repository handles persistence of screening runs and their results.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS screening_runs (
		id              BIGSERIAL PRIMARY KEY,
		strategy        TEXT NOT NULL,
		total           INT NOT NULL,
		qualified_count INT NOT NULL,
		failed_count    INT NOT NULL,
		error_count     INT NOT NULL,
		pass_rate       DOUBLE PRECISION NOT NULL,
		duration_ms     BIGINT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS screening_results (
		id              BIGSERIAL PRIMARY KEY,
		run_id          BIGINT NOT NULL REFERENCES screening_runs(id) ON DELETE CASCADE,
		rank            INT NOT NULL,
		ticker          TEXT NOT NULL,
		name            TEXT NOT NULL,
		is_qualified    BOOLEAN NOT NULL,
		composite_score DOUBLE PRECISION NOT NULL,
		margin_of_safety DOUBLE PRECISION NOT NULL,
		detail          JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_screening_results_run
		ON screening_results (run_id, rank);
`

// EnsureSchema creates the screening tables when they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create screening schema: %w", err)
	}
	return nil
}

// resultRow is one screening_results insert, qualified stocks first in
// rank order, disqualified stocks with rank 0.
type resultRow struct {
	Rank      int
	Qualified bool
	Result    *contracts.ScreeningResult
}

func runRows(out *contracts.ScreeningOutput) []resultRow {
	rows := make([]resultRow, 0, len(out.Qualified)+len(out.Disqualified))
	for i, res := range out.Qualified {
		rows = append(rows, resultRow{Rank: i + 1, Qualified: true, Result: res})
	}
	for _, res := range out.Disqualified {
		rows = append(rows, resultRow{Result: res})
	}
	return rows
}

// SaveRun persists a full screening run and returns its id.
func (r *Repository) SaveRun(ctx context.Context, out *contracts.ScreeningOutput) (int64, error) {
	query := `
		INSERT INTO screening_runs
			(strategy, total, qualified_count, failed_count, error_count, pass_rate, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		out.Summary.StrategyName,
		out.Summary.Total,
		out.Summary.QualifiedCount,
		out.Summary.FailedCount,
		out.Summary.ErrorCount,
		out.Summary.PassRate,
		out.Summary.Duration.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert screening run: %w", err)
	}

	rows := runRows(out)
	if len(rows) == 0 {
		return id, nil
	}

	batch := &pgx.Batch{}
	insert := `
		INSERT INTO screening_results
			(run_id, rank, ticker, name, is_qualified, composite_score, margin_of_safety, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, row := range rows {
		detail, err := json.Marshal(row.Result)
		if err != nil {
			return 0, fmt.Errorf("marshal result %s: %w", row.Result.Ticker, err)
		}
		batch.Queue(insert, id, row.Rank, row.Result.Ticker, row.Result.Name,
			row.Qualified, row.Result.CompositeScore, row.Result.MarginOfSafety, detail)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("insert screening result: %w", err)
		}
	}

	return id, nil
}

// GetRun loads one run with all of its results.
func (r *Repository) GetRun(ctx context.Context, id int64) (*contracts.ScreeningOutput, error) {
	query := `
		SELECT strategy, total, qualified_count, failed_count, error_count, pass_rate, duration_ms
		FROM screening_runs
		WHERE id = $1`

	out := &contracts.ScreeningOutput{}
	var durationMS int64
	err := r.db.QueryRow(ctx, query, id).Scan(
		&out.Summary.StrategyName,
		&out.Summary.Total,
		&out.Summary.QualifiedCount,
		&out.Summary.FailedCount,
		&out.Summary.ErrorCount,
		&out.Summary.PassRate,
		&durationMS,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query screening run: %w", err)
	}
	out.Summary.Duration = time.Duration(durationMS) * time.Millisecond

	resultQuery := `
		SELECT is_qualified, detail
		FROM screening_results
		WHERE run_id = $1
		ORDER BY is_qualified DESC, rank`

	rows, err := r.db.Query(ctx, resultQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query screening results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qualified bool
		var detail []byte
		if err := rows.Scan(&qualified, &detail); err != nil {
			return nil, fmt.Errorf("scan screening result: %w", err)
		}

		result := &contracts.ScreeningResult{}
		if err := json.Unmarshal(detail, result); err != nil {
			return nil, fmt.Errorf("unmarshal screening result: %w", err)
		}

		if qualified {
			out.Qualified = append(out.Qualified, result)
		} else {
			out.Disqualified = append(out.Disqualified, result)
		}
	}

	return out, rows.Err()
}

// DeleteRunsBefore removes runs created before the cutoff. Results are
// removed by the cascading foreign key.
func (r *Repository) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM screening_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete screening runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListRuns returns the most recent run headers, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, strategy, total, qualified_count, failed_count, error_count, pass_rate, duration_ms, created_at
		FROM screening_runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query screening runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMS int64
		if err := rows.Scan(
			&run.ID,
			&run.Summary.StrategyName,
			&run.Summary.Total,
			&run.Summary.QualifiedCount,
			&run.Summary.FailedCount,
			&run.Summary.ErrorCount,
			&run.Summary.PassRate,
			&durationMS,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan screening run: %w", err)
		}
		run.Summary.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
