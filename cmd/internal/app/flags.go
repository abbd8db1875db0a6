package app

import (
	"github.com/spf13/cobra"

	"scramgen/cmd/security/scram"
)

// sourceFlags are the password source flags shared by derive and install.
type sourceFlags struct {
	password  string
	inputFile string
	prompt    bool
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&s.password, "password", "p", "", "Password (visible in the process list; prefer --input-file or --prompt)")
	f.StringVarP(&s.inputFile, "input-file", "i", "", "File whose first line is the password")
	f.BoolVar(&s.prompt, "prompt", false, "Read the password from stdin (no echo on a terminal)")
}

func (s sourceFlags) empty() bool {
	return !s.prompt && s.source().Empty()
}

func (s sourceFlags) source() scram.Source {
	return scram.Source{Password: s.password, File: s.inputFile}
}

// resolve returns the password. A literal or a file wins over --prompt.
func (s sourceFlags) resolve(a *App) (string, error) {
	src := s.source()
	if src.Empty() && s.prompt {
		return readPassword(a.io.In, a.io.Err)
	}
	return src.Resolve()
}

// paramFlags override derivation parameters loaded from SCRAMGEN_* env vars.
type paramFlags struct {
	iterations int
	saltLength int
	normalize  bool
	rejectWeak bool
}

func (p *paramFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&p.iterations, "iterations", scram.DefaultIterations, "PBKDF2 iteration count")
	f.IntVar(&p.saltLength, "salt-length", scram.DefaultSaltLength, "Salt length in bytes")
	f.BoolVar(&p.normalize, "normalize", false, "Apply SASLprep to the password before derivation")
	f.BoolVar(&p.rejectWeak, "reject-weak", false, "Refuse trivially weak passwords")
}

// config merges env configuration with explicitly set flags and validates the result.
func (p paramFlags) config(cmd *cobra.Command) (scram.Config, error) {
	cfg, err := scram.FromEnv()
	if err != nil {
		return scram.Config{}, err
	}

	f := cmd.Flags()
	if f.Changed("iterations") {
		cfg.Params.Iterations = p.iterations
	}
	if f.Changed("salt-length") {
		cfg.Params.SaltLength = p.saltLength
	}
	if f.Changed("normalize") {
		cfg.Normalize = p.normalize
	}
	if f.Changed("reject-weak") {
		cfg.Policy.RejectVeryWeak = p.rejectWeak
	}

	if err := cfg.Validate(); err != nil {
		return scram.Config{}, err
	}
	return cfg, nil
}
