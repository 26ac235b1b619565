package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocxText pulls paragraph text out of a DOCX archive in document
// order. A DOCX file is a zip whose word/document.xml carries the text
// layer: paragraphs are w:p elements, runs of text are w:t elements. Only
// the text layer is read; styling, tables, and embedded media are ignored.
func extractDocxText(data []byte) (*Payload, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open docx: %w", ErrUnsupportedFormat, err)
	}

	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: docx has no document body", ErrUnsupportedFormat)
	}

	body, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: read docx body: %w", ErrUnsupportedFormat, err)
	}
	defer body.Close()

	text, err := docxParagraphs(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx body: %w", ErrUnsupportedFormat, err)
	}

	return &Payload{Text: text}, nil
}

func docxParagraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		b      strings.Builder
		para   strings.Builder
		inText bool
	)

	flush := func() {
		text := strings.TrimSpace(stripControl(para.String()))
		para.Reset()
		if text == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()

	return b.String(), nil
}
