// Command smoke checks a running console: every read route per environment,
// the 400 paths and the detector toggle round-trip.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tgsai/aiops-console/internal/smoke"
	"github.com/tgsai/aiops-console/pkg/logger"
)

// CLI defines the flags parsed by kong.
type CLI struct {
	URL          string        `short:"u" default:"http://localhost:3000" env:"AIOPS_SMOKE_URL" help:"Base URL of the console."`
	Environments []string      `short:"e" name:"env" default:"dev,uat,prod" sep:"," help:"Environments to check."`
	Timeout      time.Duration `default:"30s" help:"Per-request timeout."`
	Deadline     time.Duration `default:"5m" help:"Overall deadline for the run."`
	Workers      int           `short:"w" default:"4" help:"Concurrent requests."`
	SkipToggle   bool          `name:"skip-toggle" help:"Do not flip a detector."`
	Verbose      bool          `short:"v" help:"List every check."`
	LogFormat    string        `name:"log-format" default:"text" enum:"text,json" help:"Log format."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("smoke"),
		kong.Description("Checks every route of a running AIOps console."),
		kong.UsageOnError(),
	)
	os.Exit(run(cli, os.Stdout))
}

// run executes the smoke checks and returns the process exit code.
func run(cli CLI, out io.Writer) int {
	if err := logger.Init(logger.WithFormat(cli.LogFormat), logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 2
	}
	if cli.Verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("smoke")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cli.Deadline)
	defer cancel()

	report, err := smoke.Run(ctx, smoke.Config{
		BaseURL:      cli.URL,
		Environments: cli.Environments,
		Timeout:      cli.Timeout,
		Workers:      cli.Workers,
		SkipToggle:   cli.SkipToggle,
		Verbose:      cli.Verbose,
	}, log)
	if report != nil {
		report.Print(out, cli.Verbose)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, smoke.ErrChecksFailed):
		return 1
	default:
		log.Error(ctx, "smoke run aborted", logger.Error(err))
		return 2
	}
}
