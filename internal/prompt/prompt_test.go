package prompt_test

import (
	"strings"
	"testing"

	"github.com/pmeredith/marksman/internal/document"
	"github.com/pmeredith/marksman/internal/prompt"
	"github.com/pmeredith/marksman/internal/report"
)

func textPayload(s string) *document.Payload {
	return &document.Payload{Text: s}
}

func imagePayload(pages int) *document.Payload {
	p := &document.Payload{}
	for i := range pages {
		p.Pages = append(p.Pages, document.Page{
			Data:   []byte{byte(i + 1)},
			Width:  100,
			Height: 140,
			MIME:   "image/png",
		})
	}
	return p
}

func TestBuildDeterministic(t *testing.T) {
	builder := prompt.NewBuilder("Hebrew")
	reference := textPayload("reference answers")
	submission := imagePayload(3)

	first, err := builder.Build(reference, submission, "Dana")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := builder.Build(reference, submission, "Dana")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if first.String() != second.String() {
		t.Error("identical inputs should produce byte-identical requests")
	}
	if len(first.Parts) != len(second.Parts) {
		t.Errorf("part counts differ: %d vs %d", len(first.Parts), len(second.Parts))
	}
}

func TestBuildTextSubmission(t *testing.T) {
	builder := prompt.NewBuilder("")

	req, err := builder.Build(textPayload("solutions"), textPayload("my answers"), "Noa")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	text := req.String()

	for _, want := range []string{
		"Reference material:",
		"Reference text:\nsolutions",
		"Student submission:",
		"Student name: Noa",
		"Submission text:\nmy answers",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("request missing %q", want)
		}
	}

	// default language applies when none is configured
	if !strings.Contains(text, prompt.DefaultLanguage) {
		t.Errorf("request should name the %s feedback language", prompt.DefaultLanguage)
	}

	for _, part := range req.Parts {
		if part.Image != nil {
			t.Error("text-only request should carry no image parts")
		}
	}
}

func TestBuildImageSubmissionOrder(t *testing.T) {
	builder := prompt.NewBuilder("Hebrew")

	req, err := builder.Build(textPayload("reference"), imagePayload(3), "Adam")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// image parts must appear in page order, each preceded by its page tag
	var pages []byte
	for i, part := range req.Parts {
		if part.Image == nil {
			continue
		}
		pages = append(pages, part.Image.Data[0])

		tag := req.Parts[i-1].Text
		if !strings.Contains(tag, "Submission page") {
			t.Errorf("image part %d not preceded by a page tag: %q", i, tag)
		}
	}

	if len(pages) != 3 {
		t.Fatalf("image parts: got %d, want 3", len(pages))
	}
	for i, page := range pages {
		if page != byte(i+1) {
			t.Errorf("page order: slot %d carries page %d", i, page)
		}
	}
}

func TestBuildInstructsSectionLabels(t *testing.T) {
	builder := prompt.NewBuilder("English")

	req, err := builder.Build(textPayload("ref"), textPayload("sub"), "Lee")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	text := req.String()
	for _, label := range report.Sections() {
		if !strings.Contains(text, label+":") {
			t.Errorf("instructions missing section label %q", label)
		}
	}
	if !strings.Contains(text, "Score: <number>/100") {
		t.Error("instructions missing score format")
	}
}

func TestBuildValidatesPayloads(t *testing.T) {
	builder := prompt.NewBuilder("Hebrew")

	if _, err := builder.Build(&document.Payload{}, textPayload("sub"), "x"); err == nil {
		t.Error("invalid reference should fail")
	}
	if _, err := builder.Build(textPayload("ref"), &document.Payload{}, "x"); err == nil {
		t.Error("invalid submission should fail")
	}
}
