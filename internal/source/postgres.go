package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check that PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)

// DB is the subset of *pgxpool.Pool used by PostgresRepository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS job_sources (
	id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name       TEXT        NOT NULL,
	url        TEXT        NOT NULL,
	fetch_type TEXT        NOT NULL CHECK (fetch_type IN ('rss', 'json')),
	enabled    BOOLEAN     NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRepository stores job sources in PostgreSQL. Identity columns
// guarantee IDs are never reused after deletion.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a repository backed by db.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NewPool parses databaseURL and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the job_sources table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create job_sources table: %w", err)
	}
	return nil
}

// Add inserts a new enabled source.
func (r *PostgresRepository) Add(ctx context.Context, d Draft) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO job_sources (name, url, fetch_type, enabled)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING id`,
		d.Name, d.URL, string(d.FetchType),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert job source: %w", err)
	}
	return id, nil
}

// Update replaces name, URL and fetch type of a source.
func (r *PostgresRepository) Update(ctx context.Context, id int64, d Draft) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE job_sources
		 SET name = $2, url = $3, fetch_type = $4, updated_at = now()
		 WHERE id = $1`,
		id, d.Name, d.URL, string(d.FetchType),
	)
	if err != nil {
		return fmt.Errorf("update job source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEnabled sets the enabled flag of a source.
func (r *PostgresRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE job_sources SET enabled = $2, updated_at = now() WHERE id = $1`,
		id, enabled,
	)
	if err != nil {
		return fmt.Errorf("toggle job source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a source.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM job_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all sources ordered by ID.
func (r *PostgresRepository) List(ctx context.Context) ([]JobSource, error) {
	return r.query(ctx,
		`SELECT id, url, fetch_type, name, enabled FROM job_sources ORDER BY id`)
}

// ListEnabled returns enabled sources ordered by ID.
func (r *PostgresRepository) ListEnabled(ctx context.Context) ([]JobSource, error) {
	return r.query(ctx,
		`SELECT id, url, fetch_type, name, enabled FROM job_sources WHERE enabled ORDER BY id`)
}

func (r *PostgresRepository) query(ctx context.Context, sql string) ([]JobSource, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query job_sources: %w", err)
	}
	defer rows.Close()

	sources := make([]JobSource, 0)
	for rows.Next() {
		var s JobSource
		var fetchType string
		if err := rows.Scan(&s.ID, &s.URL, &fetchType, &s.Name, &s.Enabled); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		s.FetchType = FetchType(fetchType)
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return sources, nil
}
