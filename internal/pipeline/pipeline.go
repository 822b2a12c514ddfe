// Package pipeline turns an ordered set of page images into transcribed
// page content by dispatching completion requests to a provider.
//
// Two execution modes are supported. The default mode runs units in
// parallel under a concurrency cap with no shared context between pages.
// Maintain-format mode runs units strictly in order, threading each page's
// formatted output into the next request so formatting stays consistent
// across page boundaries. Either way results come back in unit-index order,
// never completion order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jackzampolin/vellum/internal/providers"
)

// DefaultConcurrency caps in-flight completion requests when the caller
// does not choose a limit.
const DefaultConcurrency = 10

// WorkUnit is one page image to transcribe. Index is the unit's position in
// the run (0-based); Page is the resolved document page number (1-based).
type WorkUnit struct {
	Index     int
	Page      int
	ImagePath string
}

// PageResult is the outcome of one completed unit after post-formatting.
type PageResult struct {
	Index        int
	Page         int
	Content      string
	InputTokens  int64
	OutputTokens int64
}

// Output collects the results of a run. On a failed parallel run it carries
// the units that completed before the error; callers decide how to surface
// partial output.
type Output struct {
	Results      []PageResult
	InputTokens  int64
	OutputTokens int64
}

// runState carries the mutable state of one run: the prior page content
// threaded through sequential requests and the running token totals.
type runState struct {
	mu           sync.Mutex
	priorPage    string
	inputTokens  int64
	outputTokens int64
}

func (s *runState) record(content string, in, out int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priorPage = content
	s.inputTokens += in
	s.outputTokens += out
}

func (s *runState) prior() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priorPage
}

func (s *runState) totals() (int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputTokens, s.outputTokens
}

// Config configures a Runner.
type Config struct {
	// Completer handles one page image per call. Required.
	Completer providers.Completer

	// Concurrency caps in-flight completions in parallel mode
	// (default DefaultConcurrency). Ignored in maintain-format mode.
	Concurrency int

	// MaintainFormat selects strict sequential execution with cross-page
	// context threading.
	MaintainFormat bool

	// Format post-processes raw completion content before it is stored and,
	// in maintain-format mode, before it is threaded into the next request.
	// Nil leaves content untouched.
	Format func(string) string

	// RunID prefixes per-request IDs (default: a fresh UUID).
	RunID string

	Logger *slog.Logger
}

// Runner executes work units against a completion provider.
type Runner struct {
	completer      providers.Completer
	concurrency    int
	maintainFormat bool
	format         func(string) string
	runID          string
	logger         *slog.Logger
}

// NewRunner validates config and applies defaults.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Format == nil {
		cfg.Format = func(s string) string { return s }
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Runner{
		completer:      cfg.Completer,
		concurrency:    cfg.Concurrency,
		maintainFormat: cfg.MaintainFormat,
		format:         cfg.Format,
		runID:          cfg.RunID,
		logger:         cfg.Logger,
	}, nil
}

// Run executes the units and returns results in unit-index order.
//
// Sequential mode fails the whole run on the first error with no partial
// output. Parallel mode stops dispatching after the first error but lets
// in-flight units finish; if any unit completed, the partial Output is
// returned alongside the error.
func (r *Runner) Run(ctx context.Context, units []WorkUnit) (*Output, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("no work units to run")
	}

	mode := "parallel"
	if r.maintainFormat {
		mode = "sequential"
	}
	r.logger.Info("starting transcription run",
		"run_id", r.runID,
		"mode", mode,
		"units", len(units),
		"concurrency", r.concurrency,
		"provider", r.completer.Name())

	state := &runState{}

	var (
		results []PageResult
		err     error
	)
	if r.maintainFormat {
		results, err = r.runSequential(ctx, units, state)
	} else {
		results, err = r.runParallel(ctx, units, state)
	}

	if len(results) == 0 {
		return nil, err
	}

	in, out := state.totals()
	output := &Output{Results: results, InputTokens: in, OutputTokens: out}

	r.logger.Info("transcription run finished",
		"run_id", r.runID,
		"completed", len(results),
		"units", len(units),
		"input_tokens", in,
		"output_tokens", out)

	return output, err
}

func (r *Runner) requestID(unit WorkUnit) string {
	return fmt.Sprintf("%s-%04d", r.runID, unit.Index)
}
