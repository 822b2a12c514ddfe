package convert

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestRenderPagesNoPages(t *testing.T) {
	if _, err := RenderPages(context.Background(), samplePDF, nil, t.TempDir(), 2); err == nil {
		t.Fatal("expected error for empty page list")
	}
}

func TestRenderPages(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}

	outDir := t.TempDir()
	paths, err := RenderPages(context.Background(), samplePDF, []int{1, 3}, outDir, 2)
	if err != nil {
		t.Fatalf("RenderPages() error = %v", err)
	}

	want := []string{"page_0001.png", "page_0003.png"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %d", len(want), len(paths))
	}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Fatalf("paths[%d] = %q, want base %q", i, p, want[i])
		}
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("rendered image missing: %v", err)
		}
	}
}

func TestRenderPagesOutOfRange(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}

	if _, err := RenderPages(context.Background(), samplePDF, []int{12}, t.TempDir(), 1); err == nil {
		t.Fatal("expected error for out-of-range page")
	}
}
