package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Run is the CLI entrypoint used by cmd/scramgen.
func Run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := ValidateSecurityConfig(cfg); err != nil {
		return err
	}

	streams := IOStreams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
	log := NewLogger(streams.Err, cfg.LogLevel, cfg.LogFormat, cfg.LogColor)

	a, err := New(cfg, log, streams)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmdErr := NewRootCommand(a).ExecuteContext(ctx)
	closeErr := a.Close(context.Background())

	return errors.Join(cmdErr, closeErr)
}
