// Package app wires the scramgen CLI: config, logging, metrics, and the commands that
// derive verifiers and install them on PostgreSQL roles.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"scramgen/cmd/internal/provision"
	"scramgen/cmd/security/scram"
)

// Version is stamped at build time with -ldflags "-X scramgen/cmd/internal/app.Version=...".
var Version = "dev"

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used until a command opens the database.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// IOStreams are the standard streams a command reads and writes.
type IOStreams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App is the per-invocation runtime shared by all commands.
type App struct {
	cfg     Config
	log     Logger
	io      IOStreams
	metrics *Metrics
	now     func() time.Time

	mu    sync.Mutex
	store Store
	roles provision.RoleStore
}

// New constructs an App. It opens nothing; the database is opened on first use.
func New(cfg Config, log Logger, streams IOStreams) (*App, error) {
	if streams.In == nil {
		streams.In = os.Stdin
	}
	if streams.Out == nil {
		streams.Out = os.Stdout
	}
	if streams.Err == nil {
		streams.Err = os.Stderr
	}
	if log == nil {
		log = NewLogger(streams.Err, cfg.LogLevel, cfg.LogFormat, cfg.LogColor)
	}

	runID, err := NewRunID(time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}

	return &App{
		cfg:     cfg,
		log:     log.With("run_id", runID),
		io:      streams,
		metrics: NewMetrics(),
		now:     time.Now,
		store:   nopStore{},
	}, nil
}

// Deriver builds a scram.Deriver wired to the app's logger, tracer and metrics.
func (a *App) Deriver(cfg scram.Config) (*scram.Deriver, error) {
	return scram.NewDeriver(cfg,
		scram.WithLogger(a.log.With("component", "scram")),
		scram.WithTracer(otel.Tracer("scramgen/scram")),
		scram.WithObserver(a.metrics),
	)
}

// RoleStore opens the database on first call and returns a PostgreSQL role store.
// An explicit databaseURL wins over SCRAMGEN_DATABASE_URL.
func (a *App) RoleStore(ctx context.Context, databaseURL string) (provision.RoleStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.roles != nil {
		return a.roles, nil
	}

	if databaseURL == "" {
		databaseURL = a.cfg.DatabaseURL
	}
	if a.cfg.RequireTLS && databaseURL != "" {
		if err := requireTLS(databaseURL); err != nil {
			return nil, err
		}
	}

	pool, err := NewDBPool(ctx, a.cfg, databaseURL)
	if err != nil {
		return nil, err
	}

	st, err := provision.NewPostgresRoleStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	a.log.Info("db.connected", "max_conns", pool.Config().MaxConns)
	a.store = dbStore{pool: pool}
	a.roles = st
	return st, nil
}

// Close releases the database pool and flushes the metrics textfile, if configured.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Close(ctx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}
	a.store = nopStore{}
	a.roles = nil

	if a.cfg.MetricsTextfile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile, a.now()); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", a.cfg.MetricsTextfile, err)
	}
	a.log.Debug("metrics.written", "path", a.cfg.MetricsTextfile)
	return nil
}
