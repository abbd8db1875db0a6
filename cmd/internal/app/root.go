package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the scramgen command tree bound to a.
func NewRootCommand(a *App) *cobra.Command {
	var (
		src    sourceFlags
		params paramFlags
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "scramgen",
		Short: "Generate SCRAM-SHA-256 password verifiers for PostgreSQL",
		Long: `Generate a SCRAM-SHA-256 verifier from a cleartext password.

The verifier has the form
  SCRAM-SHA-256$<iterations>:<salt>$<stored_key>:<server_key>
and can be used in CREATE/ALTER ROLE ... PASSWORD so the cleartext never
reaches the server or its logs. A fresh random salt is used on every run.

Without a password source this help is printed and nothing is derived.`,
		Example: `  scramgen -p 'correct horse battery staple'
  scramgen -i /run/secrets/app_rw --raw
  scramgen --prompt --iterations 15000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if src.empty() {
				return cmd.Help()
			}

			cfg, err := params.config(cmd)
			if err != nil {
				return err
			}

			pw, err := src.resolve(a)
			if err != nil {
				return err
			}

			d, err := a.Deriver(cfg)
			if err != nil {
				return err
			}

			v, err := d.Derive(cmd.Context(), pw)
			if err != nil {
				return err
			}

			if raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			} else {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "encrypted passwd: %s\n", v)
			}
			return err
		},
	}

	src.register(cmd)
	params.register(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the verifier")

	cmd.SetIn(a.io.In)
	cmd.SetOut(a.io.Out)
	cmd.SetErr(a.io.Err)

	cmd.AddCommand(
		newInstallCommand(a),
		newBatchCommand(a),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scramgen version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "scramgen %s\n", Version)
			return err
		},
	}
}
