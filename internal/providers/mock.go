package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// MockCompleter is a configurable fake for tests and offline runs.
type MockCompleter struct {
	// ProviderName is returned by Name (default "mock").
	ProviderName string

	// Latency simulates the network round-trip.
	Latency time.Duration

	// ShouldFail makes every call fail.
	ShouldFail bool

	// FailAfter makes calls fail once requestCount exceeds it (0 = never).
	FailAfter int

	// Content is the response body; when empty a canned transcript that
	// embeds the image path is returned.
	Content string

	requestCount atomic.Int64
}

// Name returns the provider identifier.
func (m *MockCompleter) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

// RequestCount returns the number of calls made.
func (m *MockCompleter) RequestCount() int64 {
	return m.requestCount.Load()
}

// Complete returns canned content after the configured latency.
func (m *MockCompleter) Complete(ctx context.Context, req *Request) (*Result, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}

	content := m.Content
	if content == "" {
		content = fmt.Sprintf("# Mock transcription\n\nSource: %s", req.ImagePath)
	}
	return m.result(content), nil
}

// CompleteStructured returns canned JSON after the configured latency.
func (m *MockCompleter) CompleteStructured(ctx context.Context, req *StructuredRequest) (*Result, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}

	content := m.Content
	if content == "" {
		content = fmt.Sprintf(`{"pages": %d}`, len(req.ImagePaths))
	}
	return m.result(content), nil
}

func (m *MockCompleter) simulate(ctx context.Context) error {
	count := m.requestCount.Add(1)

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	if m.ShouldFail {
		return fmt.Errorf("mock completion failed")
	}
	if m.FailAfter > 0 && count > int64(m.FailAfter) {
		return fmt.Errorf("mock completion failed after %d requests", m.FailAfter)
	}
	return nil
}

func (m *MockCompleter) result(content string) *Result {
	// Rough token estimate: ~4 characters per token.
	return &Result{
		Content:      content,
		InputTokens:  100,
		OutputTokens: int64(len(content) / 4),
	}
}

// Verify interface compliance
var _ Completer = (*MockCompleter)(nil)
var _ StructuredCompleter = (*MockCompleter)(nil)
