package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// GotenbergConverter converts office documents to PDF through a Gotenberg
// server's LibreOffice route.
type GotenbergConverter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewGotenbergConverter creates a converter against baseURL
// (e.g. http://localhost:3000).
func NewGotenbergConverter(baseURL string, client *http.Client, logger *slog.Logger) *GotenbergConverter {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GotenbergConverter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Convert posts the document to /forms/libreoffice/convert and writes the
// returned PDF to outDir/<name>.pdf.
func (g *GotenbergConverter) Convert(ctx context.Context, srcPath, outDir string) (string, error) {
	start := time.Now()

	file, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("files", filepath.Base(srcPath))
	if err != nil {
		return "", fmt.Errorf("failed to build conversion request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to build conversion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/forms/libreoffice/convert", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build conversion request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gotenberg request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gotenberg conversion failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	base := filepath.Base(srcPath)
	pdfPath := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	out, err := os.Create(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to create PDF file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}

	g.logger.Debug("converted document via gotenberg",
		"source", base,
		"pdf", filepath.Base(pdfPath),
		"duration", time.Since(start))

	return pdfPath, nil
}

// WaitReady polls the Gotenberg health endpoint until it responds or the
// timeout elapses.
func (g *GotenbergConverter) WaitReady(ctx context.Context, timeout time.Duration) error {
	httpClient := &http.Client{Timeout: 2 * time.Second}
	url := g.baseURL + "/health"

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
			if err != nil {
				return err
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(timeout.Seconds())),
		retry.Delay(1*time.Second),
	)
}
