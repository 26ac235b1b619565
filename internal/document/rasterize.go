package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"

	dcconfig "github.com/JaimeStill/document-context/pkg/config"
	dcdocument "github.com/JaimeStill/document-context/pkg/document"
	dcimage "github.com/JaimeStill/document-context/pkg/image"

	"golang.org/x/sync/errgroup"
)

const sourcePDF = "source.pdf"

// rasterize renders every page of a handwritten PDF to a PNG image. Pages
// render concurrently but the resulting sequence is always in document
// order. A single failed page is dropped and counted rather than aborting
// the document; zero surviving pages escalates to ErrUnsupportedFormat.
func (n *Normalizer) rasterize(ctx context.Context, data []byte) (*Payload, error) {
	tempDir, err := os.MkdirTemp("", "marksman-raster-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, sourcePDF)
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	pdfDoc, err := dcdocument.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrUnsupportedFormat, err)
	}
	defer pdfDoc.Close()

	allPages, err := pdfDoc.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pages: %w", ErrUnsupportedFormat, err)
	}
	if len(allPages) == 0 {
		return nil, ErrEmptyDocument
	}

	renderer, err := dcimage.NewImageMagickRenderer(n.imageConfig())
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	rendered, dropped, err := n.renderConcurrent(
		ctx,
		len(allPages),
		renderWorkerCount(len(allPages)),
		func(i int) ([]byte, error) {
			return allPages[i].ToImage(renderer, nil)
		},
	)
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(rendered))
	for _, data := range rendered {
		if data == nil {
			continue
		}
		pages = append(pages, pngPage(data))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages could be rendered", ErrUnsupportedFormat)
	}

	n.logger.Info(
		"rasterized handwritten pdf",
		"pages", len(pages),
		"dropped", dropped,
		"dpi", n.dpi,
	)

	return &Payload{Pages: pages, DroppedPages: dropped}, nil
}

// renderConcurrent runs render for every page index in parallel and returns
// results in index order. Each task carries its page index, so completion
// order never affects sequence order. Failed pages leave a nil slot and are
// counted as dropped; only context cancellation aborts the whole map.
func (n *Normalizer) renderConcurrent(
	ctx context.Context,
	count, workers int,
	render func(i int) ([]byte, error),
) ([][]byte, int, error) {
	results := make([][]byte, count)
	errs := make([]error, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range count {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := render(i)
			if err != nil {
				errs[i] = err
				return nil
			}

			results[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("render pages: %w", err)
	}

	dropped := 0
	for i, err := range errs {
		if err != nil {
			dropped++
			n.logger.Warn("page render failed, dropping page", "page", i+1, "error", err)
		}
	}

	return results, dropped, nil
}

func (n *Normalizer) imageConfig() dcconfig.ImageConfig {
	return dcconfig.ImageConfig{
		Format: "png",
		DPI:    n.dpi,
		Options: map[string]any{
			"background": "white",
		},
	}
}

func pngPage(data []byte) Page {
	page := Page{Data: data, MIME: "image/png"}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		page.Width = cfg.Width
		page.Height = cfg.Height
	}
	return page
}

func renderWorkerCount(pageCount int) int {
	return max(min(runtime.NumCPU(), pageCount), 1)
}
