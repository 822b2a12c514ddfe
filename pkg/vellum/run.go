package vellum

import (
	"context"
	"errors"
	"time"

	"github.com/jackzampolin/vellum/internal/convert"
	"github.com/jackzampolin/vellum/internal/fetch"
	"github.com/jackzampolin/vellum/internal/markdown"
	"github.com/jackzampolin/vellum/internal/pipeline"
	"github.com/jackzampolin/vellum/internal/workspace"
)

// Run processes one document end to end: fetch the source, convert it to
// PDF if needed, render the selected pages to images, transcribe them, and
// aggregate the markdown result.
//
// A parallel run that loses some pages but completes others returns the
// partial Result together with the first *AdapterError; callers distinguish
// partial from total failure by res != nil. Sequential (maintain-format)
// runs never return partial output.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger

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

	logger.Info("processing document", "file", cfg.FilePath)

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

	imagePaths, err := convert.RenderPages(ctx, pdfPath, pages, ws.ImagesDir(), cfg.Concurrency)
	if err != nil {
		return nil, NewConversionError("render", err)
	}
	logger.Info("rendered page images", "pages", len(imagePaths), "of", pageCount)

	units, err := pipeline.BuildWorkUnits(cfg.Pages.sel, imagePaths)
	if err != nil {
		return nil, &ConfigurationError{Reason: "page selection mismatch", Err: err}
	}

	runner, err := pipeline.NewRunner(pipeline.Config{
		Completer:      cfg.completer(),
		Concurrency:    cfg.Concurrency,
		MaintainFormat: cfg.MaintainFormat,
		Format:         markdown.CleanCompletion,
		RunID:          ws.RunID(),
		Logger:         logger,
	})
	if err != nil {
		return nil, NewConfigurationError(err.Error())
	}

	out, runErr := runner.Run(ctx, units)

	var retErr error
	if runErr != nil {
		var unitErr *pipeline.UnitError
		if errors.As(runErr, &unitErr) {
			retErr = NewAdapterError(unitErr.Index, unitErr.Page, unitErr.Err)
		} else {
			retErr = NewAdapterError(0, 0, runErr)
		}
	}
	if out == nil {
		return nil, retErr
	}

	contents := make([]string, 0, len(out.Results))
	resultPages := make([]Page, 0, len(out.Results))
	for _, pr := range out.Results {
		contents = append(contents, pr.Content)
		resultPages = append(resultPages, Page{
			Content:       pr.Content,
			Page:          pr.Page,
			ContentLength: len(pr.Content),
		})
	}

	res := &Result{
		CompletionTime: time.Since(start).Milliseconds(),
		FileName:       markdown.SanitizeFileName(localPath),
		InputTokens:    out.InputTokens,
		OutputTokens:   out.OutputTokens,
		Pages:          resultPages,
	}

	if cfg.OutputDir != "" && retErr == nil {
		path, werr := markdown.WriteDocument(cfg.OutputDir, res.FileName, markdown.JoinPages(contents))
		if werr != nil {
			return nil, NewIOError("write output", cfg.OutputDir, werr)
		}
		logger.Info("wrote markdown document", "path", path)
	}

	logger.Info("run complete",
		"file_name", res.FileName,
		"pages", len(res.Pages),
		"input_tokens", res.InputTokens,
		"output_tokens", res.OutputTokens,
		"duration_ms", res.CompletionTime)

	return res, retErr
}
