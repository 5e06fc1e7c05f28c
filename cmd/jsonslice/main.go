package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacoelho/jsonslice/internal/config"
	"github.com/jacoelho/jsonslice/internal/exit"
	"github.com/jacoelho/jsonslice/internal/logging"
)

func main() {
	exitCode := run()
	os.Exit(exitCode)
}

func run() int {
	cfg, exitResult := config.Parse(os.Args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		exitResult = exit.Errorf("Error: %v\n", err)
		exitResult.Print()
		return exitResult.ExitCode
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exitResult = execute(ctx, cfg, logger)
	exitResult.Print()
	return exitResult.ExitCode
}
