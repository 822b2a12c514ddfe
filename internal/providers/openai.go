package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	OpenAIName = "openai"

	// DefaultModel is the vision model used when none is configured.
	DefaultModel = "gpt-4o"

	defaultMaxRetries = 3
	defaultTimeout    = 300 * time.Second
)

// VisionModels lists OpenAI models known to accept image input. The list is
// advisory; custom BaseURL deployments may serve other names.
var VisionModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4.1",
	"gpt-4.1-mini",
}

// Params are the generation parameters forwarded to the provider. Zero
// values mean "use the provider default" and are omitted from requests.
type Params struct {
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	MaxTokens        int64
}

// OpenAIConfig holds configuration for the OpenAI completion client.
type OpenAIConfig struct {
	APIKey     string
	Model      string        // "gpt-4o" (default)
	BaseURL    string        // Optional OpenAI-compatible endpoint
	Params     Params        // Generation parameters
	RateLimit  float64       // Requests per second; 0 disables client-side limiting
	MaxRetries int           // Retry attempts for SDK transport
	Timeout    time.Duration // HTTP timeout
	HTTPClient *http.Client  // Optional (tests)
	Logger     *slog.Logger
}

// OpenAIClient implements Completer and StructuredCompleter using the
// official OpenAI SDK.
type OpenAIClient struct {
	model   string
	params  Params
	limiter *RateLimiter
	logger  *slog.Logger
	client  openai.Client
}

// NewOpenAIClient creates a new OpenAI completion client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	var limiter *RateLimiter
	if cfg.RateLimit > 0 {
		limiter = NewRateLimiter(cfg.RateLimit)
	}

	return &OpenAIClient{
		model:   cfg.Model,
		params:  cfg.Params,
		limiter: limiter,
		logger:  logger.With("provider", OpenAIName, "model", cfg.Model),
		client:  openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Complete sends one page image for transcription.
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	dataURL, err := encodeImageFile(req.ImagePath)
	if err != nil {
		return nil, err
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(transcribePrompt),
	}
	if req.PriorPage != "" {
		messages = append(messages, openai.SystemMessage(maintainFormatPrompt(req.PriorPage)))
	}
	messages = append(messages, openai.UserMessage(
		[]openai.ChatCompletionContentPartUnionParam{
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		},
	))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	c.applyParams(&params)

	return c.send(ctx, params, req.RequestID)
}

// CompleteStructured sends all page images in one request and asks for a
// JSON object conforming to the supplied schema.
func (c *OpenAIClient) CompleteStructured(ctx context.Context, req *StructuredRequest) (*Result, error) {
	if req == nil || len(req.ImagePaths) == 0 {
		return nil, fmt.Errorf("at least one image is required")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.ImagePaths)+1)
	parts = append(parts, openai.TextContentPart(structuredPrompt(req.SchemaJSON)))
	for _, path := range req.ImagePaths {
		dataURL, err := encodeImageFile(path)
		if err != nil {
			return nil, err
		}
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}))
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	c.applyParams(&params)

	return c.send(ctx, params, req.RequestID)
}

func (c *OpenAIClient) send(ctx context.Context, params openai.ChatCompletionNewParams, requestID string) (*Result, error) {
	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		mapped := mapOpenAIError(err)
		if rle, ok := IsRateLimitError(mapped); ok && c.limiter != nil {
			c.limiter.Record429(rle.RetryAfter)
		}
		c.logger.Warn("completion failed",
			"request_id", requestID,
			"duration", time.Since(start),
			"error", mapped)
		return nil, mapped
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	result := &Result{
		Content:      completion.Choices[0].Message.Content,
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
	}
	c.logger.Debug("completion succeeded",
		"request_id", requestID,
		"duration", time.Since(start),
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens)
	return result, nil
}

func (c *OpenAIClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *OpenAIClient) applyParams(params *openai.ChatCompletionNewParams) {
	if c.params.Temperature > 0 {
		params.Temperature = openai.Float(c.params.Temperature)
	}
	if c.params.TopP > 0 {
		params.TopP = openai.Float(c.params.TopP)
	}
	if c.params.FrequencyPenalty > 0 {
		params.FrequencyPenalty = openai.Float(c.params.FrequencyPenalty)
	}
	if c.params.PresencePenalty > 0 {
		params.PresencePenalty = openai.Float(c.params.PresencePenalty)
	}
	if c.params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(c.params.MaxTokens)
	}
}

// encodeImageFile reads an image from disk and returns it as a data URL.
func encodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}

	mimeType := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".webp":
		mimeType = "image/webp"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := time.Duration(0)
			if apiErr.Response != nil {
				retryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			}
			return &RateLimitError{
				Message:    fmt.Sprintf("OpenAI rate limited: %s", apiErr.Message),
				RetryAfter: retryAfter,
				StatusCode: apiErr.StatusCode,
			}
		}
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI completion error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("OpenAI completion error (status %d)", apiErr.StatusCode)
	}
	return err
}

// Verify interface compliance
var _ Completer = (*OpenAIClient)(nil)
var _ StructuredCompleter = (*OpenAIClient)(nil)
