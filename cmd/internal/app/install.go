package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scramgen/cmd/internal/provision"
	"scramgen/cmd/security/scram"
)

func newInstallCommand(a *App) *cobra.Command {
	var (
		src         sourceFlags
		params      paramFlags
		verifier    string
		databaseURL string
		create      bool
	)

	cmd := &cobra.Command{
		Use:   "install ROLE",
		Short: "Set a role's password on PostgreSQL using a SCRAM-SHA-256 verifier",
		Long: `Derive a verifier (or take one with --verifier) and apply it with
ALTER ROLE ... WITH PASSWORD '<verifier>'. Only the verifier is sent to
the server. With --create the role is created as a LOGIN role if missing.`,
		Example: `  scramgen install app_rw -i /run/secrets/app_rw
  scramgen install report_ro --prompt --create --database-url postgres://admin@db/postgres`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			role := args[0]

			if !provision.ValidRoleName(role) {
				return fmt.Errorf("invalid role name %q", role)
			}
			if verifier != "" && !src.empty() {
				return errors.New("--verifier cannot be combined with a password source")
			}
			if verifier == "" && src.empty() {
				return fmt.Errorf("%w: use --password, --input-file, --prompt or --verifier", scram.ErrNoPassword)
			}

			// Derivation parameters only matter when a verifier is derived here.
			if verifier != "" {
				if _, err := scram.ParseVerifier(verifier); err != nil {
					return err
				}
			} else {
				cfg, err := params.config(cmd)
				if err != nil {
					return err
				}
				d, err := a.Deriver(cfg)
				if err != nil {
					return err
				}
				pw, err := src.resolve(a)
				if err != nil {
					return err
				}
				if verifier, err = d.DeriveForRole(ctx, role, pw); err != nil {
					return err
				}
			}

			st, err := a.RoleStore(ctx, databaseURL)
			if err != nil {
				return err
			}

			p, err := provision.New(nil, provision.WithStore(st), provision.WithLogger(a.log))
			if err != nil {
				return err
			}

			n, err := p.Apply(ctx, []provision.Result{{
				Role:     provision.Role{Name: role, Create: create},
				Verifier: verifier,
			}})
			a.metrics.ObserveApply(n, err)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "role %s: password verifier installed\n", role)
			return err
		},
	}

	src.register(cmd)
	params.register(cmd)
	f := cmd.Flags()
	f.StringVar(&verifier, "verifier", "", "Install this precomputed verifier instead of deriving one")
	f.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (default $SCRAMGEN_DATABASE_URL)")
	f.BoolVar(&create, "create", false, "Create the role (LOGIN) if it does not exist")

	return cmd
}

