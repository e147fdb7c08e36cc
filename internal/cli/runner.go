// Package cli wires configuration, the generation service, prompts, the
// run log and the loop controller into a single run.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/codefionn/loopdriver/internal/config"
	"github.com/codefionn/loopdriver/internal/consts"
	"github.com/codefionn/loopdriver/internal/extract"
	"github.com/codefionn/loopdriver/internal/llm"
	"github.com/codefionn/loopdriver/internal/logger"
	"github.com/codefionn/loopdriver/internal/loop"
	"github.com/codefionn/loopdriver/internal/metrics"
	"github.com/codefionn/loopdriver/internal/progress"
	"github.com/codefionn/loopdriver/internal/prompts"
	"github.com/codefionn/loopdriver/internal/runlog"
	"github.com/codefionn/loopdriver/internal/step"
)

// Options configures a Runner.
type Options struct {
	Config *config.Config
	// Stderr receives progress lines. Defaults to os.Stderr.
	Stderr io.Writer
	// Generator replaces the provider client built from Config.
	Generator llm.Generator
	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID    string
	Location string
	Result   *loop.Result
}

// Runner executes one run.
type Runner struct {
	cfg       *config.Config
	stderr    io.Writer
	generator llm.Generator
	now       func() time.Time
	metrics   *metrics.Collectors
}

// NewRunner checks opts and creates a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.New("runner requires a configuration")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:       opts.Config,
		stderr:    opts.Stderr,
		generator: opts.Generator,
		now:       opts.Now,
		metrics:   metrics.New(opts.Config.MetricsAddr != ""),
	}
	if r.stderr == nil {
		r.stderr = os.Stderr
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Metrics returns the collectors the run reports to.
func (r *Runner) Metrics() *metrics.Collectors { return r.metrics }

// Run executes the loop. The returned Summary carries the run log location
// even when err is non-nil, once the log has been opened.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	cfg := r.cfg
	summary := &Summary{RunID: uuid.NewString()}

	if cfg.MetricsAddr != "" {
		server := metrics.NewServer(r.metrics)
		addr, err := server.Start(cfg.MetricsAddr)
		if err != nil {
			return summary, fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), consts.Timeout5Seconds)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown: %v", err)
			}
		}()
		server.SetReady(true)
		fmt.Fprintf(r.stderr, "metrics: http://%s/metrics\n", addr)
	}

	gen := r.generator
	if gen == nil {
		var err error
		gen, err = BuildGenerator(ctx, cfg, r.metrics)
		if err != nil {
			return summary, err
		}
	} else {
		gen = WrapGenerator(gen, cfg, r.metrics)
	}

	source, closeSource, err := openPrompts(cfg.PromptsDir)
	if err != nil {
		return summary, err
	}
	defer closeSource()

	invoker, err := step.NewInvoker(step.Options{
		Generator: gen,
		Prompts:   source,
		Extractor: newExtractor(cfg.Extractor),
		Model:     cfg.Model,
		MaxTokens: cfg.MaxOutputTokens,
		Observer:  r.metrics,
	})
	if err != nil {
		return summary, err
	}

	recorder, err := runlog.Open(cfg.LogSink, cfg.RunsDir, r.now(), summary.RunID)
	if err != nil {
		return summary, fmt.Errorf("open run log: %w", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("close run log: %v", err)
		}
	}()
	summary.Location = recorder.Location()

	ctrl, err := loop.NewController(loop.Dependencies{
		Invoker:  invoker,
		Recorder: recorder,
		Observer: r.metrics,
	}, loop.Config{MaxIterations: cfg.MaxIterations, Goal: cfg.Goal})
	if err != nil {
		return summary, err
	}

	logger.Info("run %s started: provider=%s model=%s max_iter=%d log=%s",
		summary.RunID, gen.Provider(), cfg.Model, cfg.MaxIterations, summary.Location)

	result, err := ctrl.Run(ctx, r.progressLine)
	if err != nil {
		return summary, err
	}
	summary.Result = result
	logger.Info("run %s finished: %s after %d rounds", summary.RunID, result.Termination, result.RoundsExecuted)
	return summary, nil
}

func (r *Runner) progressLine(update progress.Update) error {
	switch update.Stage {
	case progress.StageStepStarted, progress.StageRoundFinished:
		update.AddNewLine = true
		_, err := fmt.Fprint(r.stderr, update.Line())
		return err
	default:
		return nil
	}
}

func openPrompts(dir string) (prompts.Source, func(), error) {
	if dir == "" {
		return prompts.Embedded(), func() {}, nil
	}
	src, err := prompts.NewDirSource(dir)
	if err != nil {
		return nil, nil, &config.ConfigurationError{Field: "prompts_dir", Message: err.Error()}
	}
	closeFn := func() {
		if err := src.Close(); err != nil {
			logger.Warn("close prompt watcher: %v", err)
		}
	}
	return prompts.Layered{src, prompts.Embedded()}, closeFn, nil
}

func newExtractor(name string) extract.Extractor {
	if name == config.ExtractorStrictFirst {
		return extract.StrictFirst{}
	}
	return extract.BraceSpan{}
}
