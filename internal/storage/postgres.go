package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS auction_kv (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores values in the auction_kv table through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and ensures the table exists.
func OpenPostgres(ctx context.Context, opts Options) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create auction_kv table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value::text FROM auction_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (p *Postgres) PutAll(ctx context.Context, entries map[string][]byte) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for key, value := range entries {
			_, err := tx.Exec(ctx,
				`INSERT INTO auction_kv (key, value, updated_at) VALUES ($1, $2::jsonb, now())
				 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
				key, string(value))
			if err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
		return nil
	})
}

// Stat exposes pool statistics for metrics.
func (p *Postgres) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
