// Package document implements document normalization for Marksman.
// It classifies heterogeneous input documents (PDF, DOCX, raw text, images)
// as text-extractable or handwritten and converts them into the canonical
// payload consumed by the grading pipeline: either extracted plain text or
// an ordered sequence of page images.
package document

import "strings"

// Kind classifies how a document's content must be consumed.
type Kind string

// Document kinds.
const (
	// KindText marks a document whose text layer is reliable enough to
	// extract and grade as plain text.
	KindText Kind = "text"

	// KindHandwritten marks a document that must be rendered to page
	// images and graded visually.
	KindHandwritten Kind = "handwritten"
)

// Page is a single rendered or uploaded page image.
type Page struct {
	Data   []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	MIME   string `json:"mime"`
}

// Payload is the canonical normalized form of a document: exactly one of
// Text or Pages is populated. DroppedPages counts pages that failed to
// render and were omitted; it is diagnostic only and does not affect the
// variant invariant.
type Payload struct {
	Text         string `json:"text,omitempty"`
	Pages        []Page `json:"pages,omitempty"`
	DroppedPages int    `json:"dropped_pages,omitempty"`
}

// IsText reports whether the payload carries extracted text.
func (p *Payload) IsText() bool {
	return p.Text != ""
}

// Validate enforces the payload invariant: exactly one variant populated,
// and a non-empty page sequence when the image variant is used.
func (p *Payload) Validate() error {
	hasText := p.Text != ""
	hasPages := len(p.Pages) > 0

	if hasText == hasPages {
		return ErrInvalidPayload
	}

	for _, page := range p.Pages {
		if len(page.Data) == 0 {
			return ErrInvalidPayload
		}
	}

	return nil
}

// FromText wraps direct text input as a text payload. The input bypasses
// classification entirely; the only transformation applied is trimming.
func FromText(s string) (*Payload, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, ErrEmptyDocument
	}
	return &Payload{Text: trimmed}, nil
}

// normalizeExt lowercases an extension and strips a leading dot, so both
// ".PDF" and "pdf" resolve to "pdf".
func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}
