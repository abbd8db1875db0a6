package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoDatabase is returned when a command needs PostgreSQL but no DSN was given.
var ErrNoDatabase = errors.New("no database url: set SCRAMGEN_DATABASE_URL or --database-url")

// NewDBPool builds a small pgxpool and validates connectivity.
// Role DDL is issued one statement at a time, so a handful of connections is plenty.
func NewDBPool(ctx context.Context, cfg Config, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, ErrNoDatabase
	}

	pcfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		// pgx errors can echo the DSN including its password.
		return nil, errors.New("parse database url: invalid connection string")
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	pcfg.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := PingDB(ctx, pool, nonZeroDuration(cfg.DBConnectTimeout, 5*time.Second)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect %s:%d: %w", pcfg.ConnConfig.Host, pcfg.ConnConfig.Port, err)
	}

	return pool, nil
}

// PingDB checks if we can acquire a connection within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
