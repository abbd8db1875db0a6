package scram

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observer receives the outcome of every derivation.
// It never sees the password or any derived key.
type Observer interface {
	ObserveDerivation(err error, elapsed time.Duration)
}

// Deriver generates verifiers with a fresh random salt per call.
// A Deriver holds no mutable state and is safe for concurrent use.
type Deriver struct {
	cfg      Config
	rand     io.Reader
	log      *slog.Logger
	tracer   trace.Tracer
	observer Observer
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithLogger sets a structured logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(d *Deriver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithTracer sets the tracer used for the scram.Derive span.
func WithTracer(t trace.Tracer) Option {
	return func(d *Deriver) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithRandom replaces crypto/rand as the salt source. r must be safe for concurrent use
// if the Deriver is shared.
func WithRandom(r io.Reader) Option {
	return func(d *Deriver) {
		if r != nil {
			d.rand = r
		}
	}
}

// WithObserver registers an outcome observer (metrics).
func WithObserver(o Observer) Option {
	return func(d *Deriver) {
		d.observer = o
	}
}

// NewDeriver validates cfg and returns a Deriver.
func NewDeriver(cfg Config, opts ...Option) (*Deriver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Deriver{
		cfg:    cfg,
		rand:   rand.Reader,
		log:    slog.New(slog.DiscardHandler),
		tracer: noop.NewTracerProvider().Tracer("scram"),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d, nil
}

// Config returns the effective configuration.
func (d *Deriver) Config() Config { return d.cfg }

// Derive returns the verifier string for password.
// Either a complete verifier is returned or an error; never both.
func (d *Deriver) Derive(ctx context.Context, password string) (string, error) {
	return d.DeriveForRole(ctx, "", password)
}

// DeriveForRole is Derive for a known PostgreSQL role. The password policy additionally
// refuses passwords that contain the role name.
func (d *Deriver) DeriveForRole(ctx context.Context, role, password string) (string, error) {
	v, err := d.deriveVerifier(ctx, role, password)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// DeriveVerifier is Derive without the final encoding step.
func (d *Deriver) DeriveVerifier(ctx context.Context, password string) (Verifier, error) {
	return d.deriveVerifier(ctx, "", password)
}

func (d *Deriver) deriveVerifier(ctx context.Context, role, password string) (Verifier, error) {
	ctx, span := d.tracer.Start(ctx, "scram.Derive", trace.WithAttributes(
		attribute.Int("scram.iterations", d.cfg.Params.Iterations),
		attribute.Int("scram.salt_len", d.cfg.Params.SaltLength),
		attribute.Bool("scram.normalize", d.cfg.Normalize),
	))
	defer span.End()

	start := time.Now()
	v, err := d.derive(ctx, role, password)
	elapsed := time.Since(start)

	if d.observer != nil {
		d.observer.ObserveDerivation(err, elapsed)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "derive failed")
		d.log.DebugContext(ctx, "scram.derive.fail", "err", err)
		return Verifier{}, err
	}

	d.log.DebugContext(ctx, "scram.derive.ok",
		"iterations", v.Iterations,
		"salt_len", len(v.Salt),
		"duration_ms", elapsed.Milliseconds(),
	)
	return v, nil
}

func (d *Deriver) derive(ctx context.Context, role, password string) (Verifier, error) {
	if err := ctx.Err(); err != nil {
		return Verifier{}, err
	}
	if err := d.cfg.ValidatePassword(role, password); err != nil {
		return Verifier{}, err
	}

	if d.cfg.Normalize {
		password = prepare(password)
	}

	salt, err := newSalt(d.rand, d.cfg.Params.SaltLength)
	if err != nil {
		return Verifier{}, err
	}

	return DeriveWithSalt(password, salt, d.cfg.Params.Iterations)
}

func newSalt(r io.Reader, n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandom, err)
	}
	return salt, nil
}

// Derive returns a verifier for password using DefaultConfig and crypto/rand.
func Derive(password string) (string, error) {
	d, err := NewDeriver(DefaultConfig())
	if err != nil {
		return "", err
	}
	return d.Derive(context.Background(), password)
}
