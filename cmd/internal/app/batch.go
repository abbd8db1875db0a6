package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"scramgen/cmd/internal/provision"
)

func newBatchCommand(a *App) *cobra.Command {
	var (
		params      paramFlags
		workers     int
		apply       bool
		databaseURL string
	)

	cmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Derive verifiers for every role in a YAML manifest",
		Long: `Derive verifiers for many roles concurrently.

The manifest lists roles with either a literal password or a password_file
(relative paths are resolved against the manifest's directory):

  roles:
    - name: app_rw
      password_file: secrets/app_rw
    - name: report_ro
      password: s3cret
      create: true

Without --apply, one "role<TAB>verifier" line is printed per role, in
manifest order. With --apply the verifiers are installed on PostgreSQL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := provision.LoadManifest(args[0])
			if err != nil {
				return err
			}

			cfg, err := params.config(cmd)
			if err != nil {
				return err
			}
			d, err := a.Deriver(cfg)
			if err != nil {
				return err
			}

			n := a.cfg.Workers
			if cmd.Flags().Changed("workers") {
				n = workers
			}
			opts := []provision.Option{
				provision.WithWorkers(n),
				provision.WithLogger(a.log),
			}

			// Connect before deriving so a bad DSN fails fast.
			if apply {
				st, err := a.RoleStore(ctx, databaseURL)
				if err != nil {
					return err
				}
				opts = append(opts, provision.WithStore(st))
			}

			p, err := provision.New(d, opts...)
			if err != nil {
				return err
			}

			results, err := p.Derive(ctx, m.Roles)
			if err != nil {
				return err
			}
			a.log.Info("batch.derived", "roles", len(results), "workers", n)

			out := cmd.OutOrStdout()
			if !apply {
				for _, r := range results {
					if _, err := fmt.Fprintf(out, "%s\t%s\n", r.Role.Name, r.Verifier); err != nil {
						return err
					}
				}
				return nil
			}

			applied, err := p.Apply(ctx, results)
			a.metrics.ObserveApply(applied, err)
			for _, r := range results[:applied] {
				_, _ = fmt.Fprintf(out, "%s\tapplied\n", r.Role.Name)
			}
			if err != nil {
				return err
			}

			a.log.Info("batch.applied", "roles", applied, "result", "applied")
			return nil
		},
	}

	params.register(cmd)
	f := cmd.Flags()
	f.IntVar(&workers, "workers", provision.DefaultWorkers(), "Concurrent derivations")
	f.BoolVar(&apply, "apply", false, "Install the verifiers on PostgreSQL")
	f.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (default $SCRAMGEN_DATABASE_URL)")

	return cmd
}
