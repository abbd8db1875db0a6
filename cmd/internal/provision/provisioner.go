package provision

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Deriver turns a role's password into a verifier string. *scram.Deriver implements it.
type Deriver interface {
	DeriveForRole(ctx context.Context, role, password string) (string, error)
}

// Result pairs a role with its freshly derived verifier.
type Result struct {
	Role     Role
	Verifier string
}

// Provisioner derives and installs verifiers for a set of roles.
type Provisioner struct {
	deriver Deriver
	store   RoleStore
	log     *slog.Logger
	workers int
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithStore sets the RoleStore used by Apply.
func WithStore(s RoleStore) Option {
	return func(p *Provisioner) { p.store = s }
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provisioner) {
		if l != nil {
			p.log = l
		}
	}
}

// WithWorkers bounds concurrent derivations. Values <= 0 keep the default.
func WithWorkers(n int) Option {
	return func(p *Provisioner) {
		if n > 0 {
			p.workers = n
		}
	}
}

// DefaultWorkers is runtime.NumCPU clamped to [1..8].
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n <= 0 {
		n = 1
	}
	if n > 8 {
		n = 8
	}
	return n
}

// New constructs a Provisioner. d may be nil when only Apply is used.
func New(d Deriver, opts ...Option) (*Provisioner, error) {
	p := &Provisioner{
		deriver: d,
		log:     slog.New(slog.DiscardHandler),
		workers: DefaultWorkers(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p, nil
}

// Derive resolves each role's password and derives its verifier concurrently.
// Results keep the input order. The first failure cancels outstanding work and is
// returned as a *RoleError; no partial results are returned.
func (p *Provisioner) Derive(ctx context.Context, roles []Role) ([]Result, error) {
	if p.deriver == nil {
		return nil, invalidInput("provision.Derive", "no deriver configured")
	}

	results := make([]Result, len(roles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, r := range roles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			pw, err := r.Source().Resolve()
			if err != nil {
				return &RoleError{Role: r.Name, Err: err}
			}

			v, err := p.deriver.DeriveForRole(gctx, r.Name, pw)
			if err != nil {
				return &RoleError{Role: r.Name, Err: err}
			}

			results[i] = Result{Role: r, Verifier: v}
			p.log.DebugContext(gctx, "provision.derive.ok", "role", r)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.log.ErrorContext(ctx, "provision.derive.fail", "err", err)
		return nil, err
	}
	return results, nil
}

// Apply installs results sequentially, in order, and returns how many were applied.
// Roles marked Create are created, or updated if they already exist.
func (p *Provisioner) Apply(ctx context.Context, results []Result) (int, error) {
	const op = "provision.Apply"

	if p.store == nil {
		return 0, invalidInput(op, "no role store configured")
	}

	for i, res := range results {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		if err := p.applyOne(ctx, res); err != nil {
			p.log.ErrorContext(ctx, "provision.apply.fail", "role", res.Role, "err", err)
			return i, &RoleError{Role: res.Role.Name, Err: err}
		}
		p.log.InfoContext(ctx, "provision.apply.ok", "role", res.Role)
	}
	return len(results), nil
}

func (p *Provisioner) applyOne(ctx context.Context, res Result) error {
	if !res.Role.Create {
		return p.store.SetPassword(ctx, res.Role.Name, res.Verifier)
	}

	err := p.store.CreateRole(ctx, res.Role.Name, res.Verifier)
	if errors.Is(err, ErrRoleExists) {
		return p.store.SetPassword(ctx, res.Role.Name, res.Verifier)
	}
	return err
}
