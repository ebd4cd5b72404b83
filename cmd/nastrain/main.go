package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"nastrain/internal/config"
	"nastrain/internal/jobs"
	"nastrain/internal/logging"
	"nastrain/internal/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run performs one training run and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}
	hp, opts, err := config.ParseFlags("nastrain", args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	logging.SetLevel(cfg.Logging.Level)
	metrics.StartServer(cfg.Metrics.Addr)

	res, err := jobs.RunTraining(context.Background(), cfg, hp, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	logging.Debug("exit_wait", map[string]any{"delay": cfg.Runtime.ExitDelay.String(), "model": res.ModelPath})
	time.Sleep(cfg.Runtime.ExitDelay)
	return 0
}

// runInit writes a default runtime config for --config.
func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", "./nastrain.yaml", "path to write config")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if err := config.Save(*path, config.Default()); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	abs, _ := filepath.Abs(*path)
	fmt.Fprintln(stdout, "Config written to:", abs)
	return 0
}
