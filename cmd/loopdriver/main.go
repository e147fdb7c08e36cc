package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/codefionn/loopdriver/internal/cli"
	"github.com/codefionn/loopdriver/internal/config"
	"github.com/codefionn/loopdriver/internal/logger"
	"github.com/codefionn/loopdriver/internal/securemem"
)

// cliArgs holds flag values. Unset flags leave the configuration alone.
type cliArgs struct {
	configPath  string
	goal        string
	maxIter     int
	model       string
	provider    string
	promptsDir  string
	runsDir     string
	logSink     string
	extractor   string
	metricsAddr string
	logLevel    string
	logPath     string
	set         map[string]bool
}

func main() {
	securemem.Init()
	err := run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	securemem.Cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.DescribeError(err))
		os.Exit(1)
	}
}

func parseArgs(args []string, stderr io.Writer) (*cliArgs, error) {
	a := &cliArgs{set: make(map[string]bool)}

	fs := flag.NewFlagSet("loopdriver", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&a.configPath, "config", "", "path to a JSON or YAML config file")
	fs.StringVar(&a.goal, "goal", "", "goal the loop pursues (env LOOP_GOAL)")
	fs.IntVar(&a.maxIter, "max-iter", 0, "maximum number of rounds (env MAX_ITER)")
	fs.StringVar(&a.model, "model", "", "model identifier (env CLAUDE_MODEL)")
	fs.StringVar(&a.provider, "provider", "", "generation provider: anthropic, openai or google")
	fs.StringVar(&a.promptsDir, "prompts", "", "directory with prompt files overriding the built-in ones")
	fs.StringVar(&a.runsDir, "runs-dir", "", "directory for run logs")
	fs.StringVar(&a.logSink, "log-sink", "", "run log sink: jsonl or sqlite")
	fs.StringVar(&a.extractor, "extractor", "", "JSON extractor: brace-span or strict-first")
	fs.StringVar(&a.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	fs.StringVar(&a.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error, none")
	fs.StringVar(&a.logPath, "log-path", "", "diagnostic log file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { a.set[f.Name] = true })
	return a, nil
}

// apply overlays explicitly set flags on cfg.
func (a *cliArgs) apply(cfg *config.Config) {
	if a.set["goal"] {
		cfg.Goal = a.goal
	}
	if a.set["max-iter"] {
		cfg.MaxIterations = a.maxIter
	}
	if a.set["model"] {
		cfg.Model = a.model
	}
	if a.set["provider"] {
		cfg.Provider = a.provider
	}
	if a.set["prompts"] {
		cfg.PromptsDir = a.promptsDir
	}
	if a.set["runs-dir"] {
		cfg.RunsDir = a.runsDir
	}
	if a.set["log-sink"] {
		cfg.LogSink = a.logSink
	}
	if a.set["extractor"] {
		cfg.Extractor = a.extractor
	}
	if a.set["metrics-addr"] {
		cfg.MetricsAddr = a.metricsAddr
	}
	if a.set["log-level"] {
		cfg.LogLevel = a.logLevel
	}
	if a.set["log-path"] {
		cfg.LogPath = a.logPath
	}
}

func loadConfig(args *cliArgs, getenv func(string) string) (*config.Config, error) {
	cfg, err := config.Load(args.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	args.apply(cfg)
	if err := cfg.Prepare(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(argv []string, getenv func(string) string, stdout, stderr io.Writer) (err error) {
	args, err := parseArgs(argv, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := loadConfig(args, getenv)
	if err != nil {
		return err
	}
	defer cfg.Credential.Destroy()

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err != nil {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	runner, err := cli.NewRunner(cli.Options{Config: cfg, Stderr: stderr})
	if err != nil {
		return err
	}

	summary, runErr := runner.Run(context.Background())
	if writeErr := cli.WriteSummary(stdout, summary, cli.IsTerminal(stdout)); writeErr != nil && runErr == nil {
		return writeErr
	}
	return runErr
}
