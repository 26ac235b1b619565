package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pmeredith/marksman/internal/prompt"
)

// Gemini is the Generator backed by the Google Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini generator. The client is shared across calls
// and must be closed by the owner on shutdown.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{client: client}, nil
}

// Close releases the underlying client connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Generate sends the request parts to the named model and returns the
// first text candidate. Temperature is pinned to zero: grading should be
// as reproducible as the service allows.
func (g *Gemini) Generate(ctx context.Context, model string, req *prompt.Request) (string, error) {
	m := g.client.GenerativeModel(model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}

	resp, err := m.GenerateContent(ctx, toParts(req)...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return firstText(resp), nil
}

func toParts(req *prompt.Request) []genai.Part {
	parts := make([]genai.Part, 0, len(req.Parts))
	for _, part := range req.Parts {
		if part.Image != nil {
			parts = append(parts, &genai.Blob{
				MIMEType: part.Image.MIME,
				Data:     part.Image.Data,
			})
			continue
		}
		parts = append(parts, genai.Text(part.Text))
	}
	return parts
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
