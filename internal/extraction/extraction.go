// Package extraction pulls structured data out of a document by sending
// its page images through a single schema-constrained completion.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/vellum/internal/markdown"
	"github.com/jackzampolin/vellum/internal/providers"
)

// Schema is a compiled extraction schema along with its canonical JSON,
// which is embedded in the completion prompt.
type Schema struct {
	Raw      []byte
	compiled *jsonschema.Schema
}

// LoadSchema reads a JSON or YAML schema file and compiles it.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML schema: %w", err)
		}
		data, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML schema to JSON: %w", err)
		}
	}

	return CompileSchema(data)
}

// CompileSchema compiles a raw JSON schema document.
func CompileSchema(raw []byte) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{Raw: raw, compiled: compiled}, nil
}

// Validate checks a decoded JSON document against the schema.
func (s *Schema) Validate(doc any) error {
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("extracted data does not match schema: %w", err)
	}
	return nil
}

// Result is the outcome of one extraction run.
type Result struct {
	Data         map[string]any
	InputTokens  int64
	OutputTokens int64
}

// Extract sends every page image in one structured completion, parses the
// JSON response, and validates it against the schema.
func Extract(ctx context.Context, completer providers.StructuredCompleter, schema *Schema, imagePaths []string, requestID string) (*Result, error) {
	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("no page images to extract from")
	}

	res, err := completer.CompleteStructured(ctx, &providers.StructuredRequest{
		ImagePaths: imagePaths,
		SchemaJSON: schema.Raw,
		RequestID:  requestID,
	})
	if err != nil {
		return nil, err
	}

	doc, err := parseJSON(res.Content)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}

	data, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("extracted data is not a JSON object")
	}

	return &Result{
		Data:         data,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, nil
}

// parseJSON decodes model output as JSON, recovering from markdown fences
// and surrounding commentary.
func parseJSON(content string) (any, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty extraction output")
	}

	candidates := []string{content}
	if stripped := markdown.CleanCompletion(content); stripped != content {
		candidates = append(candidates, stripped)
	}
	if segment := extractJSONSegment(content); segment != "" && segment != content {
		candidates = append(candidates, segment)
	}

	for _, candidate := range candidates {
		var doc any
		if err := json.Unmarshal([]byte(candidate), &doc); err == nil {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("failed to parse extraction output as JSON")
}

// extractJSONSegment returns the outermost {...} or [...] span of the
// content, if any.
func extractJSONSegment(content string) string {
	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")

	start, closer := objStart, "}"
	if objStart < 0 || (arrStart >= 0 && arrStart < objStart) {
		start, closer = arrStart, "]"
	}
	if start < 0 {
		return ""
	}

	end := strings.LastIndex(content, closer)
	if end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}
