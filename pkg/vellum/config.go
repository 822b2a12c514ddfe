package vellum

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/vellum/internal/pipeline"
	"github.com/jackzampolin/vellum/internal/providers"
)

// LLMParams are generation parameters forwarded to the provider. Zero
// values mean "use the provider default".
type LLMParams struct {
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	MaxTokens        int64
}

// PageSelection chooses which document pages a run covers. The zero value
// selects every page.
type PageSelection struct {
	sel pipeline.Selection
}

// AllPages selects every page of the document.
func AllPages() PageSelection {
	return PageSelection{sel: pipeline.AllPages()}
}

// PageList selects an explicit set of pages. Order does not matter; the
// list is sorted before use.
func PageList(pages ...int) PageSelection {
	return PageSelection{sel: pipeline.PageList(pages...)}
}

// SinglePage selects one page.
func SinglePage(n int) PageSelection {
	return PageSelection{sel: pipeline.SinglePage(n)}
}

// Config configures a Run.
type Config struct {
	// FilePath is the document to process: a local path or an http(s)
	// URL. Required.
	FilePath string

	// APIKey authenticates against the completion provider. Required
	// unless Completer is set.
	APIKey string

	// Model is the vision model name (default "gpt-4o").
	Model string

	// BaseURL points the client at an OpenAI-compatible endpoint.
	BaseURL string

	// Concurrency caps in-flight completions (default 10). Negative
	// values are a configuration error.
	Concurrency int

	// MaintainFormat processes pages sequentially, threading each page's
	// output into the next request so formatting carries across page
	// breaks. A page failure aborts the whole run.
	MaintainFormat bool

	// OutputDir, when set, receives ${FileName}.md after a fully
	// successful run.
	OutputDir string

	// Pages selects which pages to process (default all).
	Pages PageSelection

	// TempDir hosts the per-run workspace (default os.TempDir()).
	TempDir string

	// DisableCleanup keeps the per-run workspace on disk after the run.
	DisableCleanup bool

	// LLMParams tune generation.
	LLMParams LLMParams

	// RateLimit caps provider requests per second. 0 disables
	// client-side limiting.
	RateLimit float64

	// MaxRetries sets transport-level retries in the provider SDK
	// (default 3).
	MaxRetries int

	// Timeout bounds each provider request (default 5m).
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Completer overrides the OpenAI-backed default. For embedders and
	// tests.
	Completer Completer

	// Converter overrides office-document conversion. Defaults to a
	// local soffice binary when one is installed.
	Converter Converter
}

// validate checks required input and applies defaults in place.
func (c *Config) validate() error {
	if c.FilePath == "" {
		return NewConfigurationError("file path is required")
	}
	if c.APIKey == "" && c.Completer == nil {
		return NewConfigurationError("api key is required")
	}
	if c.Concurrency < 0 {
		return NewConfigurationError(fmt.Sprintf("concurrency cannot be negative, got %d", c.Concurrency))
	}
	if c.Pages.sel.Mode == pipeline.SelectList && len(c.Pages.sel.Pages) == 0 {
		return NewConfigurationError("page list is empty")
	}

	if c.Concurrency == 0 {
		c.Concurrency = pipeline.DefaultConcurrency
	}
	if c.Model == "" {
		c.Model = providers.DefaultModel
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// completer returns the configured override or builds the OpenAI client.
func (c *Config) completer() providers.Completer {
	if c.Completer != nil {
		return completerAdapter{c.Completer}
	}
	return providers.NewOpenAIClient(providers.OpenAIConfig{
		APIKey:  c.APIKey,
		Model:   c.Model,
		BaseURL: c.BaseURL,
		Params: providers.Params{
			Temperature:      c.LLMParams.Temperature,
			TopP:             c.LLMParams.TopP,
			FrequencyPenalty: c.LLMParams.FrequencyPenalty,
			PresencePenalty:  c.LLMParams.PresencePenalty,
			MaxTokens:        c.LLMParams.MaxTokens,
		},
		RateLimit:  c.RateLimit,
		MaxRetries: c.MaxRetries,
		Timeout:    c.Timeout,
		Logger:     c.Logger,
	})
}
