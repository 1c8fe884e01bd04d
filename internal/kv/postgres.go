// internal/kv/postgres.go
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgres implements the Store interface on a single slots table.
// This backend is intended for production use with persistent storage.
type postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed store. It establishes a
// connection pool and initializes the schema.
func NewPostgres(dsn string) (Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30
	config.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &postgres{db: pool}, nil
}

// initSchema creates the slots table if it doesn't already exist.
func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
		CREATE TABLE IF NOT EXISTS slots (
		    slot TEXT PRIMARY KEY,
		    value TEXT NOT NULL,
		    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`
	_, err := db.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (p *postgres) Close() {
	p.db.Close()
}

func (p *postgres) Get(ctx context.Context, slot string) (string, error) {
	query := `SELECT value FROM slots WHERE slot = $1`
	var value string

	err := p.db.QueryRow(ctx, query, slot).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get slot: %w", err)
	}
	return value, nil
}

func (p *postgres) Set(ctx context.Context, slot, value string) error {
	query := `INSERT INTO slots (slot, value, updated_at) VALUES ($1, $2, $3)
	          ON CONFLICT (slot) DO UPDATE SET value = $2, updated_at = $3`

	_, err := p.db.Exec(ctx, query, slot, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set slot: %w", err)
	}
	return nil
}

func (p *postgres) Delete(ctx context.Context, slot string) error {
	query := `DELETE FROM slots WHERE slot = $1`

	_, err := p.db.Exec(ctx, query, slot)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}
