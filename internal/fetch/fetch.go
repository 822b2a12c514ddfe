// Package fetch resolves a source document reference, either a local path
// or an http(s) URL, to a local file.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	downloadAttempts = 3
	downloadTimeout  = 5 * time.Minute
)

// Resolver locates source documents. Local paths are used in place; URLs
// are downloaded into the destination directory with retries on transient
// failures. Client errors (4xx) are not retried.
type Resolver struct {
	client   *http.Client
	logger   *slog.Logger
	attempts uint
	delay    time.Duration
}

// NewResolver creates a Resolver. A nil client gets a default with a
// download timeout.
func NewResolver(client *http.Client, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client:   client,
		logger:   logger,
		attempts: downloadAttempts,
		delay:    time.Second,
	}
}

// Resolve returns a local path for src. Local paths are verified to exist;
// http(s) sources are downloaded into destDir.
func (r *Resolver) Resolve(ctx context.Context, src, destDir string) (string, error) {
	if IsURL(src) {
		return r.download(ctx, src, destDir)
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("source file not accessible: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source %s is a directory", src)
	}
	return src, nil
}

// IsURL reports whether src is an http(s) reference.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func (r *Resolver) download(ctx context.Context, src, destDir string) (string, error) {
	dest := filepath.Join(destDir, fileNameFromURL(src))

	start := time.Now()
	err := retry.Do(
		func() error {
			return r.fetchOnce(ctx, src, dest)
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
	)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", src, err)
	}

	r.logger.Debug("downloaded source document",
		"url", src,
		"dest", dest,
		"duration", time.Since(start))

	return dest, nil
}

func (r *Resolver) fetchOnce(ctx context.Context, src, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, src)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return retry.Unrecoverable(err)
		}
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

// fileNameFromURL derives a file name from the URL path. URLs without a
// usable path segment get a generated name; the document is assumed to be
// a PDF in that case.
func fileNameFromURL(src string) string {
	u, err := url.Parse(src)
	if err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" {
			return base
		}
	}
	return uuid.NewString() + ".pdf"
}
