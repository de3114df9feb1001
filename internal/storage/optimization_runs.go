package storage

import (
	"context"
	"fmt"
	"time"
)

const optimizationRunsSchema = `
	CREATE TABLE IF NOT EXISTS optimization_runs (
		id BIGSERIAL PRIMARY KEY,
		component TEXT NOT NULL,
		current_value DOUBLE PRECISION NOT NULL,
		target_value DOUBLE PRECISION NOT NULL,
		improvement DOUBLE PRECISION NOT NULL,
		actions TEXT[] NOT NULL DEFAULT '{}',
		estimated_time_ms BIGINT NOT NULL,
		applied BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_optimization_runs_created_at
		ON optimization_runs (created_at DESC);
`

// OptimizationRun is one persisted corrective plan, applied or deferred.
type OptimizationRun struct {
	ID              int64     `json:"id"`
	Component       string    `json:"component"`
	CurrentValue    float64   `json:"current_value"`
	TargetValue     float64   `json:"target_value"`
	Improvement     float64   `json:"improvement"`
	Actions         []string  `json:"actions"`
	EstimatedTimeMS int64     `json:"estimated_time_ms"`
	Applied         bool      `json:"applied"`
	CreatedAt       time.Time `json:"created_at"`
}

func (c *PostgresClient) InsertOptimizationRun(ctx context.Context, run *OptimizationRun) error {
	query := `
		INSERT INTO optimization_runs (
			component, current_value, target_value, improvement,
			actions, estimated_time_ms, applied
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.pool.QueryRow(
		ctx,
		query,
		run.Component,
		run.CurrentValue,
		run.TargetValue,
		run.Improvement,
		run.Actions,
		run.EstimatedTimeMS,
		run.Applied,
	).Scan(&run.ID, &run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save optimization run: %w", err)
	}

	return nil
}

// RecentOptimizationRuns returns up to limit runs, newest first.
func (c *PostgresClient) RecentOptimizationRuns(ctx context.Context, limit int) ([]*OptimizationRun, error) {
	query := `
		SELECT id, component, current_value, target_value, improvement,
			actions, estimated_time_ms, applied, created_at
		FROM optimization_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := c.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query optimization runs: %w", err)
	}
	defer rows.Close()

	var runs []*OptimizationRun
	for rows.Next() {
		var r OptimizationRun
		if err := rows.Scan(
			&r.ID,
			&r.Component,
			&r.CurrentValue,
			&r.TargetValue,
			&r.Improvement,
			&r.Actions,
			&r.EstimatedTimeMS,
			&r.Applied,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan optimization run: %w", err)
		}
		runs = append(runs, &r)
	}

	return runs, rows.Err()
}
