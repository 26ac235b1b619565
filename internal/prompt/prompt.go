// Package prompt constructs the grading request sent to the model. A
// request is an ordered list of text and image parts: a fixed instruction
// block, the reference content, the submission content, and the student
// line. Building is deterministic, so identical inputs always produce a
// byte-identical request and grading stays reproducible and testable.
package prompt

import (
	"fmt"
	"strings"

	"github.com/pmeredith/marksman/internal/document"
)

// Part is one ordered element of a grading request. Exactly one of Text or
// Image is set.
type Part struct {
	Text  string
	Image *document.Page
}

// Request is the complete multimodal grading request.
type Request struct {
	Parts []Part
}

// Builder assembles grading requests.
type Builder struct {
	language string
}

// NewBuilder creates a Builder that instructs the model to respond in the
// given feedback language. Section labels stay fixed regardless of
// language so the response parser has a stable target.
func NewBuilder(language string) *Builder {
	if language == "" {
		language = DefaultLanguage
	}
	return &Builder{language: language}
}

// Build combines reference and submission payloads with the student
// identifier into a single request. Text payloads are embedded as text
// blocks; image payloads become ordered image parts, each preceded by a
// page tag so the model can cite pages.
func (b *Builder) Build(reference, submission *document.Payload, student string) (*Request, error) {
	if err := reference.Validate(); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	if err := submission.Validate(); err != nil {
		return nil, fmt.Errorf("submission: %w", err)
	}

	req := &Request{}
	req.text(b.instructions())

	req.text("Reference material:")
	appendPayload(req, reference, "Reference")

	req.text("Student submission:")
	req.text(fmt.Sprintf("Student name: %s", student))
	appendPayload(req, submission, "Submission")

	return req, nil
}

func appendPayload(req *Request, payload *document.Payload, role string) {
	if payload.IsText() {
		req.text(fmt.Sprintf("%s text:\n%s", role, payload.Text))
		return
	}

	for i := range payload.Pages {
		req.text(fmt.Sprintf("%s page %d:", role, i+1))
		req.image(&payload.Pages[i])
	}
}

func (req *Request) text(s string) {
	req.Parts = append(req.Parts, Part{Text: s})
}

func (req *Request) image(page *document.Page) {
	req.Parts = append(req.Parts, Part{Image: page})
}

// Text flattens the request's text parts for logging and tests. Image parts
// contribute a placeholder tag.
func (req *Request) String() string {
	var b strings.Builder
	for i, part := range req.Parts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if part.Image != nil {
			fmt.Fprintf(&b, "[image %s %dx%d]", part.Image.MIME, part.Image.Width, part.Image.Height)
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
