package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const samplePDF = "../../testdata/sample.pdf"

type fakeConverter struct {
	src    string
	outDir string
	result string
	err    error
}

func (f *fakeConverter) Convert(ctx context.Context, srcPath, outDir string) (string, error) {
	f.src = srcPath
	f.outDir = outDir
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path   string
		pdf    bool
		office bool
	}{
		{"report.pdf", true, false},
		{"REPORT.PDF", true, false},
		{"contract.docx", false, true},
		{"slides.pptx", false, true},
		{"sheet.xlsx", false, true},
		{"notes.txt", false, true},
		{"archive.zip", false, false},
		{"image.png", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsPDF(tt.path); got != tt.pdf {
				t.Fatalf("IsPDF(%q) = %v", tt.path, got)
			}
			if got := IsOfficeDocument(tt.path); got != tt.office {
				t.Fatalf("IsOfficeDocument(%q) = %v", tt.path, got)
			}
			if got := IsSupported(tt.path); got != (tt.pdf || tt.office) {
				t.Fatalf("IsSupported(%q) = %v", tt.path, got)
			}
		})
	}
}

func TestEnsurePDFUnsupported(t *testing.T) {
	_, err := EnsurePDF(context.Background(), nil, "archive.zip", t.TempDir())
	if err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

func TestEnsurePDFOffice(t *testing.T) {
	outDir := t.TempDir()
	conv := &fakeConverter{result: filepath.Join(outDir, "contract.pdf")}

	got, err := EnsurePDF(context.Background(), conv, "/docs/contract.docx", outDir)
	if err != nil {
		t.Fatalf("EnsurePDF() error = %v", err)
	}
	if got != conv.result {
		t.Fatalf("EnsurePDF() = %q, want %q", got, conv.result)
	}
	if conv.src != "/docs/contract.docx" || conv.outDir != outDir {
		t.Fatalf("converter called with src=%q outDir=%q", conv.src, conv.outDir)
	}
}

func TestEnsurePDFOfficeWithoutConverter(t *testing.T) {
	_, err := EnsurePDF(context.Background(), nil, "contract.docx", t.TempDir())
	if err == nil {
		t.Fatal("expected error without an office converter")
	}
}

func TestEnsurePDFValidates(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(bad, []byte("not a pdf"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := EnsurePDF(context.Background(), nil, bad, t.TempDir()); err == nil {
		t.Fatal("expected error for invalid PDF")
	}

	got, err := EnsurePDF(context.Background(), nil, samplePDF, t.TempDir())
	if err != nil {
		t.Fatalf("EnsurePDF() error = %v", err)
	}
	if got != samplePDF {
		t.Fatalf("expected PDF used in place, got %q", got)
	}
}

func TestPageCount(t *testing.T) {
	count, err := PageCount(samplePDF)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("PageCount() = %d, want 3", count)
	}
}

func TestPageCountInvalid(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(bad, []byte("not a pdf"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := PageCount(bad); err == nil {
		t.Fatal("expected error for invalid PDF")
	}
	if _, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
