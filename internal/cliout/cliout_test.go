package cliout

import (
	"bytes"
	"strings"
	"testing"
)

type runSummary struct {
	FileName string `json:"file_name" yaml:"file_name"`
	Pages    int    `json:"pages" yaml:"pages"`
}

func TestOutputTo(t *testing.T) {
	data := runSummary{FileName: "my_report_v2", Pages: 3}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, FormatYAML, data); err != nil {
			t.Fatalf("OutputTo() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "file_name: my_report_v2") {
			t.Errorf("yaml output missing file_name: %q", out)
		}
		if !strings.Contains(out, "pages: 3") {
			t.Errorf("yaml output missing pages: %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, FormatJSON, data); err != nil {
			t.Fatalf("OutputTo() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, `"file_name": "my_report_v2"`) {
			t.Errorf("json output missing file_name: %q", out)
		}
		if !strings.HasPrefix(out, "{") {
			t.Errorf("json output not an object: %q", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, Format("toml"), data); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestSetFormat(t *testing.T) {
	defer SetFormat("yaml")

	SetFormat("json")
	if CurrentFormat() != FormatJSON {
		t.Errorf("expected json, got %s", CurrentFormat())
	}

	SetFormat("yaml")
	if CurrentFormat() != FormatYAML {
		t.Errorf("expected yaml, got %s", CurrentFormat())
	}

	SetFormat("bogus")
	if CurrentFormat() != DefaultFormat {
		t.Errorf("expected default format for unknown value, got %s", CurrentFormat())
	}
}
