// Package workspace manages the per-run scratch directory holding the
// fetched source document, its PDF conversion, and rendered page images.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// dirPrefix names workspace directories so stragglers are identifiable.
	dirPrefix = "vellum-"

	// ImagesDirName is the subdirectory for rendered page images.
	ImagesDirName = "images"
)

// Workspace is one run's scratch directory. Every run gets a fresh
// UUID-named directory under the configured temp root.
type Workspace struct {
	root  string
	runID string
}

// New creates the workspace directories under tempDir. An empty tempDir
// falls back to the system temp directory.
func New(tempDir string) (*Workspace, error) {
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	runID := uuid.NewString()
	root := filepath.Join(tempDir, dirPrefix+runID)

	if err := os.MkdirAll(filepath.Join(root, ImagesDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return &Workspace{root: root, runID: runID}, nil
}

// Root returns the workspace root path.
func (w *Workspace) Root() string {
	return w.root
}

// RunID returns the run identifier the workspace was created with.
func (w *Workspace) RunID() string {
	return w.runID
}

// ImagesDir returns the directory rendered page images are written to.
func (w *Workspace) ImagesDir() string {
	return filepath.Join(w.root, ImagesDirName)
}

// PagePath returns the image path for a page. Page numbers are 1-indexed.
func (w *Workspace) PagePath(pageNum int) string {
	return filepath.Join(w.ImagesDir(), fmt.Sprintf("page_%04d.png", pageNum))
}

// PagePaths returns image paths for the given pages in order.
func (w *Workspace) PagePaths(pages []int) []string {
	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = w.PagePath(p)
	}
	return paths
}

// Cleanup removes the workspace directory and everything under it.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.root)
}
