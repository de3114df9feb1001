package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const healthReportsSchema = `
	CREATE TABLE IF NOT EXISTS health_reports (
		id BIGSERIAL PRIMARY KEY,
		status TEXT NOT NULL,
		score INT NOT NULL,
		cpu_percent DOUBLE PRECISION NOT NULL,
		memory_percent DOUBLE PRECISION NOT NULL,
		disk_percent DOUBLE PRECISION NOT NULL,
		network_percent DOUBLE PRECISION NOT NULL,
		data_store_health DOUBLE PRECISION NOT NULL,
		cache_health DOUBLE PRECISION NOT NULL,
		issue_count INT NOT NULL,
		recommendations TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_health_reports_created_at
		ON health_reports (created_at DESC);
`

type PostgresClient struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresClient(connectionURL string, logger *zap.Logger) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute
	config.ConnConfig.ConnectTimeout = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		pool:   pool,
		logger: logger,
	}, nil
}

func (c *PostgresClient) Close() {
	c.pool.Close()
}

func (c *PostgresClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.pool.Ping(ctx)
}

// InitSchema creates the monitor tables if they do not exist yet.
func (c *PostgresClient) InitSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := c.pool.Exec(ctx, healthReportsSchema); err != nil {
		return fmt.Errorf("failed to initialize health_reports schema: %w", err)
	}
	if _, err := c.pool.Exec(ctx, optimizationRunsSchema); err != nil {
		return fmt.Errorf("failed to initialize optimization_runs schema: %w", err)
	}

	c.logger.Debug("Monitor schema ready")
	return nil
}

// ProbeLatency measures the round-trip time of a trivial query. Latencies
// beyond the probe timeout surface as errors, not as large durations.
func (c *PostgresClient) ProbeLatency(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var one int
	start := time.Now()
	if err := c.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return 0, fmt.Errorf("failed to probe database: %w", err)
	}

	return time.Since(start), nil
}

// RefreshStatistics re-collects query planner statistics. It touches no
// schema or row data.
func (c *PostgresClient) RefreshStatistics(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	if _, err := c.pool.Exec(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("failed to refresh statistics: %w", err)
	}

	c.logger.Info("Refreshed planner statistics",
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (c *PostgresClient) InsertHealthRecord(ctx context.Context, record *HealthRecord) error {
	query := `
		INSERT INTO health_reports (
			status, score,
			cpu_percent, memory_percent, disk_percent, network_percent,
			data_store_health, cache_health,
			issue_count, recommendations
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.pool.QueryRow(
		ctx,
		query,
		record.Status,
		record.Score,
		record.CPUPercent,
		record.MemoryPercent,
		record.DiskPercent,
		record.NetworkPercent,
		record.DataStoreHealth,
		record.CacheHealth,
		record.IssueCount,
		record.Recommendations,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save health record: %w", err)
	}

	return nil
}

// RecentHealthRecords returns up to limit records, newest first.
func (c *PostgresClient) RecentHealthRecords(ctx context.Context, limit int) ([]*HealthRecord, error) {
	query := `
		SELECT id, status, score,
			cpu_percent, memory_percent, disk_percent, network_percent,
			data_store_health, cache_health,
			issue_count, recommendations, created_at
		FROM health_reports
		ORDER BY created_at DESC
		LIMIT $1
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := c.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query health records: %w", err)
	}
	defer rows.Close()

	var records []*HealthRecord
	for rows.Next() {
		var r HealthRecord
		if err := rows.Scan(
			&r.ID,
			&r.Status,
			&r.Score,
			&r.CPUPercent,
			&r.MemoryPercent,
			&r.DiskPercent,
			&r.NetworkPercent,
			&r.DataStoreHealth,
			&r.CacheHealth,
			&r.IssueCount,
			&r.Recommendations,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan health record: %w", err)
		}
		records = append(records, &r)
	}

	return records, rows.Err()
}

// RecentScores returns up to limit health scores in chronological order,
// oldest first, ready for trend analysis.
func (c *PostgresClient) RecentScores(ctx context.Context, limit int) ([]float64, error) {
	query := `
		SELECT score FROM (
			SELECT score, created_at
			FROM health_reports
			ORDER BY created_at DESC
			LIMIT $1
		) recent
		ORDER BY created_at ASC
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := c.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}

	return scores, rows.Err()
}

// PruneHealthRecords deletes everything but the most recent keep rows.
func (c *PostgresClient) PruneHealthRecords(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM health_reports
		WHERE id NOT IN (
			SELECT id FROM health_reports
			ORDER BY created_at DESC
			LIMIT $1
		)
	`

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := c.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune health records: %w", err)
	}

	deleted := result.RowsAffected()
	if deleted > 0 {
		c.logger.Debug("Pruned health records",
			zap.Int64("deleted", deleted),
			zap.Int("kept", keep))
	}

	return deleted, nil
}

func (c *PostgresClient) GetPoolStats() *pgxpool.Stat {
	return c.pool.Stat()
}
