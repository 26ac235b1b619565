package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// DefaultTextThreshold is the average count of non-whitespace characters per
// page below which a PDF is treated as handwritten. The exact boundary is a
// heuristic, not a contract; it only needs to separate scanned handwriting
// (near-zero extractable text) from typed documents.
const DefaultTextThreshold = 20

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var imageExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"webp": true,
}

// Classifier decides whether a document is text-extractable or must be
// treated as handwritten image content.
type Classifier struct {
	threshold int
	logger    *slog.Logger
}

// NewClassifier creates a Classifier with the given text-density threshold.
// Non-positive thresholds fall back to DefaultTextThreshold.
func NewClassifier(threshold int, logger *slog.Logger) *Classifier {
	if threshold <= 0 {
		threshold = DefaultTextThreshold
	}
	return &Classifier{
		threshold: threshold,
		logger:    logger.With("system", "classifier"),
	}
}

// Classify inspects document bytes against the declared extension and
// returns the content kind. DOCX and plain text are always KindText; raw
// images are always KindHandwritten; PDFs are classified by text density.
// A byte stream that does not match the declared format fails with
// ErrUnsupportedFormat carrying the detected type.
func (c *Classifier) Classify(data []byte, ext string) (Kind, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	detected := mimetype.Detect(data)

	switch e := normalizeExt(ext); {
	case e == "pdf":
		if !detected.Is("application/pdf") {
			return "", unsupported(detected.String())
		}
		return c.classifyPDF(data)

	case e == "docx":
		// The text layer of a word-processor document is guaranteed.
		if !detected.Is(docxMIME) && !detected.Is("application/zip") {
			return "", unsupported(detected.String())
		}
		return KindText, nil

	case e == "txt":
		return KindText, nil

	case imageExts[e]:
		if !strings.HasPrefix(detected.String(), "image/") {
			return "", unsupported(detected.String())
		}
		return KindHandwritten, nil

	default:
		return "", unsupported(detected.String())
	}
}

// classifyPDF extracts the text layer per page and compares the average
// non-whitespace character count against the threshold. Extraction failure
// on a structurally valid PDF means there is no usable text layer, which is
// itself a handwritten signal.
func (c *Classifier) classifyPDF(data []byte) (Kind, error) {
	perPage, err := extractPDFPages(data)
	if err != nil {
		return "", unsupported("application/pdf")
	}

	if len(perPage) == 0 {
		return "", ErrEmptyDocument
	}

	total := 0
	for _, text := range perPage {
		total += countInk(text)
	}
	average := total / len(perPage)

	c.logger.Debug(
		"pdf text density",
		"pages", len(perPage),
		"chars", total,
		"average", average,
		"threshold", c.threshold,
	)

	if average < c.threshold {
		return KindHandwritten, nil
	}
	return KindText, nil
}

// extractPDFPages returns the extractable text of each page in document
// order. Pages whose text layer cannot be read contribute an empty string.
// The pdf reader panics on some malformed cross-reference tables, so the
// whole walk runs under a recover that converts the panic into an error.
func extractPDFPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrUnsupportedFormat, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}

func countInk(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

func unsupported(detected string) error {
	return fmt.Errorf("%w: detected %s", ErrUnsupportedFormat, detected)
}
