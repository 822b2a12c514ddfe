package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
)

// renderDPI is the rasterization resolution for page images. 150 DPI keeps
// vision-model inputs well under request size limits while staying readable.
const renderDPI = 150

// RenderPages rasterizes the given document pages to PNG files in outDir,
// named page_%04d.png. Pages render concurrently, capped by workers
// (default: NumCPU). The returned paths follow the order of pages.
func RenderPages(ctx context.Context, pdfPath string, pages []int, outDir string, workers int) ([]string, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to render")
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	type result struct {
		page int
		err  error
	}

	results := make(chan result, len(pages))
	sem := make(chan struct{}, workers)

	for _, page := range pages {
		sem <- struct{}{} // acquire
		go func(page int) {
			defer func() { <-sem }() // release
			results <- result{page: page, err: renderPage(ctx, pdfPath, outDir, page)}
		}(page)
	}

	for range pages {
		r := <-results
		if r.err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", r.page, r.err)
		}
	}

	paths := make([]string, len(pages))
	for i, page := range pages {
		paths[i] = pageImagePath(outDir, page)
	}
	return paths, nil
}

// renderPage renders a single page using pdftoppm (poppler-utils).
func renderPage(ctx context.Context, pdfPath, outDir string, page int) error {
	// pdftoppm with -singlefile writes <prefix>.png
	prefix := filepath.Join(outDir, fmt.Sprintf("page_%04d", page))
	pageStr := strconv.Itoa(page)

	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(renderDPI),
		"-singlefile",
		pdfPath,
		prefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	if _, err := os.Stat(prefix + ".png"); err != nil {
		return fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return nil
}

func pageImagePath(outDir string, page int) string {
	return filepath.Join(outDir, fmt.Sprintf("page_%04d.png", page))
}
