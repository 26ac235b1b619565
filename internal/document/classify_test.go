package document_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pmeredith/marksman/internal/document"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// docxFixture builds a minimal DOCX archive carrying the given paragraphs.
func docxFixture(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>`)
		body.WriteString(p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create docx entry: %v", err)
	}
	if _, err := f.Write(body.Bytes()); err != nil {
		t.Fatalf("write docx entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close docx archive: %v", err)
	}

	return buf.Bytes()
}

// pdfFixture builds a minimal single-page PDF whose text layer shows the
// given string in a standard Helvetica font. Offsets in the cross-reference
// table are computed while writing, so the file is structurally valid for
// any input. The text must not contain parentheses or backslashes.
func pdfFixture(t *testing.T, text string) []byte {
	t.Helper()

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// pngFixture encodes a small solid image.
func pngFixture(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestClassify(t *testing.T) {
	classifier := document.NewClassifier(0, discardLogger())

	tests := []struct {
		name    string
		data    func(t *testing.T) []byte
		ext     string
		want    document.Kind
		wantErr error
	}{
		{
			name: "plain text",
			data: func(t *testing.T) []byte { return []byte("answer: 42") },
			ext:  "txt",
			want: document.KindText,
		},
		{
			name: "docx is always text",
			data: func(t *testing.T) []byte { return docxFixture(t, "solution") },
			ext:  "docx",
			want: document.KindText,
		},
		{
			name: "docx with uppercase dotted extension",
			data: func(t *testing.T) []byte { return docxFixture(t, "solution") },
			ext:  ".DOCX",
			want: document.KindText,
		},
		{
			name: "png is always handwritten",
			data: func(t *testing.T) []byte { return pngFixture(t, 8, 8) },
			ext:  "png",
			want: document.KindHandwritten,
		},
		{
			name: "jpeg extension with png bytes still image",
			data: func(t *testing.T) []byte { return pngFixture(t, 8, 8) },
			ext:  "jpg",
			want: document.KindHandwritten,
		},
		{
			name: "pdf with dense text layer",
			data: func(t *testing.T) []byte {
				return pdfFixture(t, strings.Repeat("solved a quadratic equation here ", 8))
			},
			ext:  "pdf",
			want: document.KindText,
		},
		{
			name: "pdf with sparse text layer",
			data: func(t *testing.T) []byte { return pdfFixture(t, "ok") },
			ext:  "pdf",
			want: document.KindHandwritten,
		},
		{
			name:    "pdf extension with text bytes",
			data:    func(t *testing.T) []byte { return []byte("not a pdf") },
			ext:     "pdf",
			wantErr: document.ErrUnsupportedFormat,
		},
		{
			name:    "image extension with text bytes",
			data:    func(t *testing.T) []byte { return []byte("not an image") },
			ext:     "png",
			wantErr: document.ErrUnsupportedFormat,
		},
		{
			name:    "unknown extension",
			data:    func(t *testing.T) []byte { return []byte("content") },
			ext:     "xlsx",
			wantErr: document.ErrUnsupportedFormat,
		},
		{
			name:    "empty document",
			data:    func(t *testing.T) []byte { return nil },
			ext:     "txt",
			wantErr: document.ErrEmptyDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifier.Classify(tt.data(t), tt.ext)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Classify error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}
