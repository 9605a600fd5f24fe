package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// PostgresStore is a Store backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to PostgreSQL and applies the embedded migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// migrate runs every embedded file in name order. Files are written to be re-runnable.
func (s *PostgresStore) migrate(ctx context.Context) error {
	entries, err := postgresMigrations.ReadDir("migrations/postgres")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		content, err := postgresMigrations.ReadFile("migrations/postgres/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SaveReport inserts a report, assigning an id and timestamp when missing.
func (s *PostgresStore) SaveReport(ctx context.Context, r *Report) error {
	if err := r.prepare(); err != nil {
		return err
	}
	stages, record, err := marshalColumns(r)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (id, run_id, kind, status, target_role, stages, record, overall_score, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.RunID, r.Kind, r.Status, r.TargetRole, stages, record, r.OverallScore, r.Error, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by id.
func (s *PostgresStore) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	var r Report
	var stages, record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, run_id, kind, status, target_role, stages, record, overall_score, error_message, created_at
		 FROM reports WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.RunID, &r.Kind, &r.Status, &r.TargetRole, &stages, &record, &r.OverallScore, &r.Error, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	if err := unmarshalColumns(&r, stages, record); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReports returns report summaries, newest first.
func (s *PostgresStore) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, kind, status, target_role, overall_score, created_at
		 FROM reports ORDER BY created_at DESC LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	summaries := []ReportSummary{}
	for rows.Next() {
		var sum ReportSummary
		if err := rows.Scan(&sum.ID, &sum.RunID, &sum.Kind, &sum.Status, &sum.TargetRole, &sum.OverallScore, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteReport removes a report and reports whether it existed.
func (s *PostgresStore) DeleteReport(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
