// Package providers contains the completion adapter contract and its
// implementations. The pipeline depends only on the Completer interface;
// everything provider-specific (transport, auth, rate limiting, prompt
// construction) stays behind it.
package providers

import (
	"context"
)

// Request is one page-transcription call.
type Request struct {
	// ImagePath is the rendered page image on local disk.
	ImagePath string

	// PriorPage carries the formatted content of the preceding page in
	// maintain-format mode. Empty means no context is threaded.
	PriorPage string

	// RequestID tracks the request through logs.
	RequestID string
}

// Result is the outcome of a completion call.
type Result struct {
	Content      string
	InputTokens  int64
	OutputTokens int64
}

// Completer transcribes a single page image to markdown.
// Implementations are treated as opaque, slow, failure-prone remote calls
// and must be safe for concurrent use.
type Completer interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// Complete sends one transcription request.
	Complete(ctx context.Context, req *Request) (*Result, error)
}

// StructuredRequest asks for a single JSON document extracted from a set of
// page images, conforming to the supplied schema.
type StructuredRequest struct {
	// ImagePaths are the rendered page images, in page order.
	ImagePaths []string

	// SchemaJSON is the raw JSON schema the output must conform to. It is
	// embedded in the prompt; validation happens caller-side.
	SchemaJSON []byte

	// RequestID tracks the request through logs.
	RequestID string
}

// StructuredCompleter produces schema-shaped JSON from page images. Kept
// separate from Completer because structured extraction is a single call
// over many images, not a per-page operation.
type StructuredCompleter interface {
	CompleteStructured(ctx context.Context, req *StructuredRequest) (*Result, error)
}
