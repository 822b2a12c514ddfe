package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	ws, err := New(tempDir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !strings.HasPrefix(filepath.Base(ws.Root()), dirPrefix) {
		t.Fatalf("workspace root %q missing prefix %q", ws.Root(), dirPrefix)
	}
	if ws.RunID() == "" {
		t.Fatal("expected a run ID")
	}

	info, err := os.Stat(ws.ImagesDir())
	if err != nil {
		t.Fatalf("images dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("images path is not a directory")
	}
}

func TestNewUniquePerRun(t *testing.T) {
	tempDir := t.TempDir()

	first, err := New(tempDir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	second, err := New(tempDir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if first.Root() == second.Root() {
		t.Fatalf("expected unique workspace roots, both %q", first.Root())
	}
}

func TestPagePaths(t *testing.T) {
	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := ws.PagePath(3); filepath.Base(got) != "page_0003.png" {
		t.Fatalf("PagePath(3) = %q", got)
	}

	paths := ws.PagePaths([]int{2, 5, 7})
	want := []string{"page_0002.png", "page_0005.png", "page_0007.png"}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Fatalf("PagePaths()[%d] = %q, want base %q", i, p, want[i])
		}
	}
}

func TestCleanup(t *testing.T) {
	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := os.WriteFile(ws.PagePath(1), []byte("png"), 0644); err != nil {
		t.Fatalf("write page image: %v", err)
	}

	if err := ws.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(ws.Root()); !os.IsNotExist(err) {
		t.Fatalf("expected workspace removed, stat err = %v", err)
	}
}
