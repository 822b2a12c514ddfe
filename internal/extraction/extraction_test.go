package extraction

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/vellum/internal/providers"
)

const invoiceSchema = `{
	"type": "object",
	"properties": {
		"vendor": {"type": "string"},
		"total": {"type": "number"}
	},
	"required": ["vendor", "total"]
}`

func writeSchemaFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func TestLoadSchemaJSON(t *testing.T) {
	path := writeSchemaFile(t, "invoice.json", invoiceSchema)

	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	if err := schema.Validate(map[string]any{"vendor": "ACME", "total": 12.5}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := schema.Validate(map[string]any{"vendor": "ACME"}); err == nil {
		t.Fatal("expected validation error for missing total")
	}
}

func TestLoadSchemaYAML(t *testing.T) {
	path := writeSchemaFile(t, "invoice.yaml", `
type: object
properties:
  vendor:
    type: string
  total:
    type: number
required:
  - vendor
  - total
`)

	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	if err := schema.Validate(map[string]any{"vendor": "ACME", "total": 12.5}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadSchemaInvalid(t *testing.T) {
	path := writeSchemaFile(t, "broken.json", `{"type": `)
	if _, err := LoadSchema(path); err == nil {
		t.Fatal("expected error for broken schema")
	}
	if _, err := LoadSchema(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing schema file")
	}
}

func TestExtract(t *testing.T) {
	schema, err := CompileSchema([]byte(invoiceSchema))
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}

	mock := &providers.MockCompleter{Content: `{"vendor": "ACME", "total": 99.5}`}

	result, err := Extract(context.Background(), mock, schema, []string{"p1.png", "p2.png"}, "req-1")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Data["vendor"] != "ACME" {
		t.Fatalf("unexpected data: %+v", result.Data)
	}
	if result.InputTokens == 0 || result.OutputTokens == 0 {
		t.Fatalf("expected token counts, got %d/%d", result.InputTokens, result.OutputTokens)
	}
}

func TestExtractFencedJSON(t *testing.T) {
	schema, err := CompileSchema([]byte(invoiceSchema))
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}

	mock := &providers.MockCompleter{Content: "```json\n{\"vendor\": \"ACME\", \"total\": 99.5}\n```"}

	result, err := Extract(context.Background(), mock, schema, []string{"p1.png"}, "req-1")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Data["total"] != 99.5 {
		t.Fatalf("unexpected data: %+v", result.Data)
	}
}

func TestExtractSchemaViolation(t *testing.T) {
	schema, err := CompileSchema([]byte(invoiceSchema))
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}

	mock := &providers.MockCompleter{Content: `{"vendor": "ACME"}`}

	if _, err := Extract(context.Background(), mock, schema, []string{"p1.png"}, "req-1"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExtractCompleterFailure(t *testing.T) {
	schema, err := CompileSchema([]byte(invoiceSchema))
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}

	mock := &providers.MockCompleter{ShouldFail: true}

	if _, err := Extract(context.Background(), mock, schema, []string{"p1.png"}, "req-1"); err == nil {
		t.Fatal("expected completer error to propagate")
	}
}

func TestParseJSONRecovery(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain object", `{"a": 1}`, false},
		{"fenced json", "```json\n{\"a\": 1}\n```", false},
		{"fenced bare", "```\n{\"a\": 1}\n```", false},
		{"surrounding prose", "Here is the data: {\"a\": 1} as requested.", false},
		{"no json", "no structured data here", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJSON(tt.content)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("parseJSON() error = %v", err)
			}
		})
	}
}
