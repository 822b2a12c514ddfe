package vellum

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackzampolin/vellum/internal/convert"
	"github.com/jackzampolin/vellum/internal/extraction"
	"github.com/jackzampolin/vellum/internal/fetch"
	"github.com/jackzampolin/vellum/internal/pipeline"
	"github.com/jackzampolin/vellum/internal/providers"
	"github.com/jackzampolin/vellum/internal/workspace"
)

// ExtractConfig configures Extract.
type ExtractConfig struct {
	// FilePath is the document to process: a local path or an http(s)
	// URL. Required.
	FilePath string

	// SchemaPath is a JSON-schema file (JSON or YAML). Required.
	SchemaPath string

	// APIKey authenticates against the completion provider. Required
	// unless Completer is set.
	APIKey string

	// Model is the vision model name (default "gpt-4o").
	Model string

	// BaseURL points the client at an OpenAI-compatible endpoint.
	BaseURL string

	// Pages selects which pages the extraction sees (default all).
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

	// Completer overrides the OpenAI-backed default.
	Completer StructuredCompleter

	// Converter overrides office-document conversion.
	Converter Converter
}

func (c *ExtractConfig) validate() error {
	if c.FilePath == "" {
		return NewConfigurationError("file path is required")
	}
	if c.SchemaPath == "" {
		return NewConfigurationError("schema path is required")
	}
	if c.APIKey == "" && c.Completer == nil {
		return NewConfigurationError("api key is required")
	}
	if c.Pages.sel.Mode == pipeline.SelectList && len(c.Pages.sel.Pages) == 0 {
		return NewConfigurationError("page list is empty")
	}

	if c.Model == "" {
		c.Model = providers.DefaultModel
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

func (c *ExtractConfig) completer() providers.StructuredCompleter {
	if c.Completer != nil {
		return structuredAdapter{c.Completer}
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

// Extract pulls structured data out of a document. Every selected page is
// rendered and sent in a single schema-guided completion; the response is
// validated against the schema before it is returned. Extraction shares no
// concurrency or maintain-format behavior with Run.
func Extract(ctx context.Context, cfg ExtractConfig) (*ExtractResult, error) {
	start := time.Now()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger

	schema, err := extraction.LoadSchema(cfg.SchemaPath)
	if err != nil {
		return nil, &ConfigurationError{Reason: "invalid schema", Err: err}
	}

	ws, err := workspace.New(cfg.TempDir)
	if err != nil {
		return nil, NewIOError("create workspace", cfg.TempDir, err)
	}
	if !cfg.DisableCleanup {
		defer func() {
			if err := ws.Cleanup(); err != nil {
				logger.Warn("workspace cleanup failed", "root", ws.Root(), "error", err)
			}
		}()
	}
	logger = logger.With("run_id", ws.RunID())

	logger.Info("extracting document", "file", cfg.FilePath, "schema", cfg.SchemaPath)

	resolver := fetch.NewResolver(nil, logger)
	localPath, err := resolver.Resolve(ctx, cfg.FilePath, ws.Root())
	if err != nil {
		return nil, NewConversionError("fetch", err)
	}

	var conv convert.Converter
	if cfg.Converter != nil {
		conv = cfg.Converter
	} else if convert.IsOfficeDocument(localPath) {
		if soffice, err := convert.NewSofficeConverter(logger); err == nil {
			conv = soffice
		}
	}

	pdfPath, err := convert.EnsurePDF(ctx, conv, localPath, ws.Root())
	if err != nil {
		return nil, NewConversionError("convert", err)
	}

	pageCount, err := convert.PageCount(pdfPath)
	if err != nil {
		return nil, NewConversionError("count", err)
	}

	pages, err := pipeline.SelectedPages(cfg.Pages.sel, pageCount)
	if err != nil {
		return nil, NewConversionError("render", err)
	}

	imagePaths, err := convert.RenderPages(ctx, pdfPath, pages, ws.ImagesDir(), 0)
	if err != nil {
		return nil, NewConversionError("render", err)
	}

	res, err := extraction.Extract(ctx, cfg.completer(), schema, imagePaths, ws.RunID())
	if err != nil {
		return nil, NewAdapterError(0, 0, err)
	}

	out := &ExtractResult{
		Data:           res.Data,
		InputTokens:    res.InputTokens,
		OutputTokens:   res.OutputTokens,
		CompletionTime: time.Since(start).Milliseconds(),
	}

	logger.Info("extraction complete",
		"pages", len(imagePaths),
		"input_tokens", out.InputTokens,
		"output_tokens", out.OutputTokens,
		"duration_ms", out.CompletionTime)

	return out, nil
}
