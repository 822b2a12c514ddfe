// Package convert turns source documents into PDFs and PDFs into page
// images ready for transcription.
//
// Office documents are converted by LibreOffice, either a local soffice
// binary or a Gotenberg server (optionally managed as a Docker container).
// Page images are rendered with pdftoppm.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Converter turns an office document into a PDF in outDir and returns the
// PDF path.
type Converter interface {
	Convert(ctx context.Context, srcPath, outDir string) (string, error)
}

// officeExtensions are document types LibreOffice can convert to PDF.
var officeExtensions = map[string]bool{
	".doc":  true,
	".docx": true,
	".odt":  true,
	".ott":  true,
	".rtf":  true,
	".txt":  true,
	".html": true,
	".htm":  true,
	".xls":  true,
	".xlsx": true,
	".ods":  true,
	".csv":  true,
	".tsv":  true,
	".ppt":  true,
	".pptx": true,
	".odp":  true,
}

// IsPDF reports whether path names a PDF document.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// IsOfficeDocument reports whether path names a document type that needs
// conversion to PDF.
func IsOfficeDocument(path string) bool {
	return officeExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSupported reports whether path names a processable document type.
func IsSupported(path string) bool {
	return IsPDF(path) || IsOfficeDocument(path)
}

// EnsurePDF returns a PDF path for the source document. PDFs are validated
// and used in place; office documents are converted into outDir.
func EnsurePDF(ctx context.Context, conv Converter, srcPath, outDir string) (string, error) {
	switch {
	case IsPDF(srcPath):
		if err := ValidatePDF(srcPath); err != nil {
			return "", err
		}
		return srcPath, nil
	case IsOfficeDocument(srcPath):
		if conv == nil {
			return "", fmt.Errorf("no office converter available for %s", filepath.Base(srcPath))
		}
		return conv.Convert(ctx, srcPath, outDir)
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(srcPath))
	}
}
