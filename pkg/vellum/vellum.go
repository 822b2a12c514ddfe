// Package vellum converts documents into per-page markdown by rendering
// each page to an image and transcribing it with a vision model.
//
// Typical use:
//
//	res, err := vellum.Run(ctx, vellum.Config{
//		FilePath: "report.pdf",
//		APIKey:   os.Getenv("OPENAI_API_KEY"),
//	})
//
// Runs are parallel by default, bounded by Config.Concurrency. Setting
// MaintainFormat processes pages one at a time so each request sees the
// previous page's output and tables or lists keep their formatting across
// page breaks.
package vellum

import (
	"context"

	"github.com/jackzampolin/vellum/internal/providers"
)

// CompletionRequest asks for one page image to be transcribed.
type CompletionRequest struct {
	// ImagePath is the page image on local disk.
	ImagePath string
	// PriorPage carries the previous page's formatted output in
	// maintain-format runs; empty otherwise.
	PriorPage string
	// RequestID identifies the request in logs.
	RequestID string
}

// CompletionResult is the provider's transcription of one page.
type CompletionResult struct {
	Content      string
	InputTokens  int64
	OutputTokens int64
}

// Completer is the completion-provider seam. Implementations must be safe
// for concurrent use.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)
}

// StructuredRequest asks for schema-guided extraction over page images.
type StructuredRequest struct {
	ImagePaths []string
	SchemaJSON []byte
	RequestID  string
}

// StructuredCompleter handles schema-guided extraction requests.
type StructuredCompleter interface {
	Name() string
	CompleteStructured(ctx context.Context, req *StructuredRequest) (*CompletionResult, error)
}

// Converter turns an office document into a PDF inside outDir and returns
// the new file's path.
type Converter interface {
	Convert(ctx context.Context, srcPath, outDir string) (string, error)
}

// completerAdapter bridges a caller-supplied Completer onto the internal
// provider seam.
type completerAdapter struct {
	c Completer
}

func (a completerAdapter) Name() string {
	return a.c.Name()
}

func (a completerAdapter) Complete(ctx context.Context, req *providers.Request) (*providers.Result, error) {
	res, err := a.c.Complete(ctx, &CompletionRequest{
		ImagePath: req.ImagePath,
		PriorPage: req.PriorPage,
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, err
	}
	return &providers.Result{
		Content:      res.Content,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, nil
}

type structuredAdapter struct {
	c StructuredCompleter
}

func (a structuredAdapter) Name() string {
	return a.c.Name()
}

func (a structuredAdapter) CompleteStructured(ctx context.Context, req *providers.StructuredRequest) (*providers.Result, error) {
	res, err := a.c.CompleteStructured(ctx, &StructuredRequest{
		ImagePaths: req.ImagePaths,
		SchemaJSON: req.SchemaJSON,
		RequestID:  req.RequestID,
	})
	if err != nil {
		return nil, err
	}
	return &providers.Result{
		Content:      res.Content,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, nil
}
