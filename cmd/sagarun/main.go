package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tobbstr/saga"
	"github.com/tobbstr/saga/internal/logging"
	"github.com/tobbstr/saga/internal/plan"
)

var version = "dev"

const (
	_ = iota
	exitPlanNotSpecified
	exitDotenvError
	exitLoggingSetupFailed
	exitLoadPlanFailed
	exitLoadVarsFailed
	exitWorkflowFailed
	exitRevertFailed
	exitMetricsWriteFailed
)

var (
	planFile        string
	varsFile        string
	metricsTextfile string
	loggingType     string
	logLevel        string
	showVersion     bool
)

func init() {
	flag.StringVar(
		&planFile,
		"plan",
		"",
		"workflow plan YAML file to execute")
	flag.StringVar(
		&varsFile,
		"vars-file",
		"",
		"YAML file with variables merged over the plan vars")
	flag.StringVar(
		&metricsTextfile,
		"metrics-textfile",
		"",
		"write Prometheus metrics to this file after the run")
	flag.StringVar(
		&loggingType,
		"logging-type",
		"tint",
		"logging type: json, text or tint")
	flag.StringVar(
		&logLevel,
		"log-level",
		"info",
		"logging level: debug, info, warn, error")
	flag.BoolVar(
		&showVersion,
		"version",
		false,
		"print version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := logging.Initialize(loggingType, logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitLoggingSetupFailed)
	}

	includeEnv()

	if planFile == "" {
		slog.Error("-plan not set")
		os.Exit(exitPlanNotSpecified)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, runConfig{
		planFile:        planFile,
		varsFile:        varsFile,
		metricsTextfile: metricsTextfile,
		stdout:          os.Stdout,
		stderr:          os.Stderr,
	})
	stop()

	os.Exit(code)
}

type runConfig struct {
	planFile        string
	varsFile        string
	metricsTextfile string
	stdout          io.Writer
	stderr          io.Writer
}

func run(ctx context.Context, cfg runConfig) int {
	p, err := plan.Load(cfg.planFile)
	if err != nil {
		slog.Error("failed to load plan", "filename", cfg.planFile, "error", err)
		return exitLoadPlanFailed
	}

	var extra map[string]any
	if cfg.varsFile != "" {
		extra, err = plan.LoadVars(cfg.varsFile)
		if err != nil {
			slog.Error("failed to load vars file", "filename", cfg.varsFile, "error", err)
			return exitLoadVarsFailed
		}
	}

	registry := prometheus.NewRegistry()
	wf := p.Workflow(plan.NewShellRunner(cfg.stdout, cfg.stderr)).
		WithObserver(newSlogObserver(slog.Default())).
		WithObserver(saga.NewMetricsObserver(registry, "sagarun"))

	_, err = wf.Execute(ctx, p.NewState(extra))
	outcome := saga.OutcomeOf(err)
	fmt.Fprintf(cfg.stdout, "%s: %s\n", p.Name, outcome)

	code := exitCode(outcome)
	if err != nil {
		fmt.Fprintln(cfg.stderr, err)
	}

	if cfg.metricsTextfile != "" {
		if err := prometheus.WriteToTextfile(cfg.metricsTextfile, registry); err != nil {
			slog.Error("failed to write metrics", "filename", cfg.metricsTextfile, "error", err)
			if code == 0 {
				code = exitMetricsWriteFailed
			}
		}
	}

	return code
}

func exitCode(outcome saga.Outcome) int {
	switch outcome {
	case saga.OutcomeFailed:
		return exitWorkflowFailed
	case saga.OutcomeRevertFailed:
		return exitRevertFailed
	default:
		return 0
	}
}

func includeEnv() {
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to load .env", "error", err)
			os.Exit(exitDotenvError)
		}
		slog.Debug("no .env file found")
	} else {
		slog.Info("using .env file")
	}
}
