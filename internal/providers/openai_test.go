package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not-a-real-png"), 0644); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	return path
}

func chatCompletionResponse(content string, promptTokens, completionTokens int) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-test",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-4o",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": %d, "completion_tokens": %d, "total_tokens": %d}
	}`, content, promptTokens, completionTokens, promptTokens+completionTokens)
}

func TestOpenAICompleteSuccess(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionResponse("# Page One", 321, 55)))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o",
		BaseURL: server.URL,
		Params:  Params{Temperature: 0.2, MaxTokens: 2048},
	})

	result, err := client.Complete(context.Background(), &Request{
		ImagePath: writeTestImage(t, "page_0001.png"),
		RequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if result.Content != "# Page One" {
		t.Fatalf("unexpected content: %q", result.Content)
	}
	if result.InputTokens != 321 || result.OutputTokens != 55 {
		t.Fatalf("unexpected tokens: in=%d out=%d", result.InputTokens, result.OutputTokens)
	}

	if got, _ := payload["model"].(string); got != "gpt-4o" {
		t.Fatalf("expected model gpt-4o, got %q", got)
	}
	if got, _ := payload["temperature"].(float64); got != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", got)
	}
	if got, _ := payload["max_tokens"].(float64); got != 2048 {
		t.Fatalf("expected max_tokens 2048, got %v", got)
	}

	messages, _ := payload["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages (system + user), got %d", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("expected first message role system, got %v", first["role"])
	}
	raw, _ := json.Marshal(messages[1])
	if !strings.Contains(string(raw), "image_url") {
		t.Fatalf("expected user message with image part, got %s", raw)
	}
	if !strings.Contains(string(raw), "data:image/png;base64,") {
		t.Fatalf("expected png data URL in user message, got %s", raw)
	}
}

func TestOpenAICompletePriorPage(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionResponse("continued", 10, 5)))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Complete(context.Background(), &Request{
		ImagePath: writeTestImage(t, "page_0002.png"),
		PriorPage: "| a | b |",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	messages, _ := payload["messages"].([]any)
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages with prior page context, got %d", len(messages))
	}
	second, _ := messages[1].(map[string]any)
	if second["role"] != "system" {
		t.Fatalf("expected second message role system, got %v", second["role"])
	}
	content, _ := second["content"].(string)
	if !strings.Contains(content, "| a | b |") {
		t.Fatalf("expected prior page content in context message, got %q", content)
	}
}

func TestOpenAICompleteRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"rate_limit_error","param":"","code":"rate_limit"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: 1,
	})

	_, err := client.Complete(context.Background(), &Request{
		ImagePath: writeTestImage(t, "page_0001.png"),
	})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	rle, ok := IsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rle.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rle.StatusCode)
	}
	if rle.RetryAfter != time.Second {
		t.Fatalf("expected RetryAfter=1s, got %v", rle.RetryAfter)
	}
}

func TestOpenAICompleteStructured(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionResponse(`{"title":"Annual Report"}`, 500, 20)))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})

	result, err := client.CompleteStructured(context.Background(), &StructuredRequest{
		ImagePaths: []string{
			writeTestImage(t, "page_0001.png"),
			writeTestImage(t, "page_0002.png"),
		},
		SchemaJSON: []byte(`{"type":"object","properties":{"title":{"type":"string"}}}`),
	})
	if err != nil {
		t.Fatalf("CompleteStructured() error = %v", err)
	}
	if result.Content != `{"title":"Annual Report"}` {
		t.Fatalf("unexpected content: %q", result.Content)
	}

	rf, _ := payload["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", rf)
	}
	raw, _ := json.Marshal(payload["messages"])
	if got := strings.Count(string(raw), "image_url"); got < 2 {
		t.Fatalf("expected 2 image parts, found %d", got)
	}
	if !strings.Contains(string(raw), "strictly conforms") {
		t.Fatalf("expected schema instructions in prompt, got %s", raw)
	}
}

func TestOpenAICompleteMissingImage(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key"})

	_, err := client.Complete(context.Background(), &Request{
		ImagePath: "/nonexistent/page_0001.png",
	})
	if err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestEncodeImageFile(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		prefix string
	}{
		{"png", "page.png", "data:image/png;base64,"},
		{"jpeg", "page.jpg", "data:image/jpeg;base64,"},
		{"unknown extension falls back to png", "page.bin", "data:image/png;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := encodeImageFile(writeTestImage(t, tt.file))
			if err != nil {
				t.Fatalf("encodeImageFile() error = %v", err)
			}
			if !strings.HasPrefix(url, tt.prefix) {
				t.Fatalf("expected prefix %q, got %q", tt.prefix, url[:40])
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Fatalf("parseRetryAfter(3) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Fatalf("parseRetryAfter(empty) = %v", got)
	}
	if got := parseRetryAfter("Mon, 02 Jan 2006 15:04:05 GMT"); got != 0 {
		t.Fatalf("parseRetryAfter(past date) = %v", got)
	}
}
