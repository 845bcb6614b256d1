package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/ccrm-api/internal/cli"
	"github.com/noah-isme/ccrm-api/pkg/config"
	"github.com/noah-isme/ccrm-api/pkg/logger"
)

func main() {
	opts, err := cli.ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		if errors.Is(err, cli.ErrUsage) {
			flag.Usage()
		}
		exitf("Error: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		exitf("Error: failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		exitf("Error: failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, cfg, opts, os.Stdout, logr); err != nil {
		stop()
		exitf("Error: %v", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
