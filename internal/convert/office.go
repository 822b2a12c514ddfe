package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// SofficeConverter converts office documents to PDF with a local
// LibreOffice installation.
type SofficeConverter struct {
	binary string
	logger *slog.Logger
}

// NewSofficeConverter locates the soffice binary. Returns an error when
// LibreOffice is not installed.
func NewSofficeConverter(logger *slog.Logger) (*SofficeConverter, error) {
	binary, err := exec.LookPath("soffice")
	if err != nil {
		return nil, fmt.Errorf("libreoffice (soffice) not found in PATH: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SofficeConverter{binary: binary, logger: logger}, nil
}

// Convert runs soffice headless to produce outDir/<name>.pdf.
func (s *SofficeConverter) Convert(ctx context.Context, srcPath, outDir string) (string, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, s.binary,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		srcPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("soffice conversion failed: %w (output: %s)", err, string(output))
	}

	base := filepath.Base(srcPath)
	pdfPath := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("soffice did not create expected output: %w", err)
	}

	s.logger.Debug("converted document to PDF",
		"source", base,
		"pdf", filepath.Base(pdfPath),
		"duration", time.Since(start))

	return pdfPath, nil
}
