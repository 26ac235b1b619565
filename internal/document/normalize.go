package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// DefaultDPI is the rasterization resolution for handwritten PDF pages.
// Handwriting legibility for the vision model degrades below ~150 DPI.
const DefaultDPI = 200

// Normalizer converts classified documents into canonical payloads.
type Normalizer struct {
	dpi    int
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer rendering handwritten pages at the
// given DPI. Non-positive values fall back to DefaultDPI.
func NewNormalizer(dpi int, logger *slog.Logger) *Normalizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Normalizer{
		dpi:    dpi,
		logger: logger.With("system", "normalizer"),
	}
}

// Normalize converts document bytes into a Payload according to the
// classification: text PDFs and DOCX become concatenated page text,
// handwritten PDFs become an ordered page-image sequence, and raw images
// are wrapped as a single-page sequence. The returned payload always
// satisfies the single-variant invariant or the call fails with a typed
// error.
func (n *Normalizer) Normalize(ctx context.Context, data []byte, ext string, kind Kind) (*Payload, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	payload, err := n.normalize(ctx, data, normalizeExt(ext), kind)
	if err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: normalization produced no content", ErrUnsupportedFormat)
	}

	return payload, nil
}

func (n *Normalizer) normalize(ctx context.Context, data []byte, ext string, kind Kind) (*Payload, error) {
	switch {
	case kind == KindText && ext == "pdf":
		return extractPDFText(data)

	case kind == KindText && ext == "docx":
		return extractDocxText(data)

	case kind == KindText && ext == "txt":
		return &Payload{Text: strings.TrimSpace(stripControl(string(data)))}, nil

	case kind == KindHandwritten && ext == "pdf":
		return n.rasterize(ctx, data)

	case kind == KindHandwritten && imageExts[ext]:
		return wrapImage(data)

	default:
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedFormat, kind, ext)
	}
}

// extractPDFText concatenates per-page text in document order, preserving
// paragraph breaks between pages.
func extractPDFText(data []byte) (*Payload, error) {
	pages, err := extractPDFPages(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}

	var b strings.Builder
	for _, page := range pages {
		text := strings.TrimSpace(stripControl(page))
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	return &Payload{Text: b.String()}, nil
}

// wrapImage wraps an uploaded image directly as a single-page payload,
// probing dimensions from the image header.
func wrapImage(data []byte) (*Payload, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %w", ErrUnsupportedFormat, err)
	}

	return &Payload{
		Pages: []Page{{
			Data:   data,
			Width:  cfg.Width,
			Height: cfg.Height,
			MIME:   mimetype.Detect(data).String(),
		}},
	}, nil
}

// stripControl removes non-printable control characters while preserving
// line and paragraph structure.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
