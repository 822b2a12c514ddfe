// Package markdown post-processes completion output and assembles the
// final document.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// maxFileNameLength bounds sanitized names to a safe filesystem length.
const maxFileNameLength = 255

var (
	// nonWordPattern matches characters outside word characters and whitespace.
	nonWordPattern = regexp.MustCompile(`[^\w\s]`)

	// whitespacePattern matches runs of whitespace.
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanCompletion normalizes raw completion content: line endings become LF,
// outer blank space is trimmed, and a wrapping code fence (```markdown ... ```)
// is stripped. Fences inside the content are left alone.
func CleanCompletion(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line when it is bare or labels markdown.
	head, rest, found := strings.Cut(text, "\n")
	if !found {
		return text
	}
	label := strings.TrimSpace(strings.TrimPrefix(head, "```"))
	if label != "" && label != "markdown" && label != "md" {
		return text
	}

	rest = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	return strings.TrimSpace(rest)
}

// JoinPages joins page contents with a blank line between pages.
func JoinPages(pages []string) string {
	return strings.Join(pages, "\n\n")
}

// SanitizeFileName derives a filesystem-safe document name from a source
// path or URL: the base name without extension, punctuation removed,
// whitespace runs collapsed to underscores, lowercased.
//
// "My Report (v2).pdf" becomes "my_report_v2".
func SanitizeFileName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	name = nonWordPattern.ReplaceAllString(name, "")
	name = whitespacePattern.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.ToLower(name)

	if len(name) > maxFileNameLength {
		name = name[:maxFileNameLength]
	}
	if name == "" {
		return "document"
	}
	return name
}

// WriteDocument writes the joined content to dir/fileName.md, creating the
// directory if needed, and returns the written path.
func WriteDocument(dir, fileName, content string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, fileName+".md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return path, nil
}
