package pipeline

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ModelClient is the boundary to the generative model provider. It is an
// injected dependency so tests can substitute a fake provider; implementations
// make exactly one outbound call per invocation and do not retry.
type ModelClient interface {
	// GenerateText sends a prompt and returns the raw text output.
	GenerateText(ctx context.Context, prompt string, maxOutputTokens int32) (string, error)

	// GenerateFromDocument sends a prompt plus an inline binary document
	// and returns the raw text output.
	GenerateFromDocument(ctx context.Context, prompt string, document []byte, mimeType string, maxOutputTokens int32) (string, error)
}

// GeminiClient implements ModelClient on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed model client. The API key is read
// from the environment by the genai SDK (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	if model == "" {
		model = DefaultModelName
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) GenerateText(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	return g.generate(ctx, contents, maxOutputTokens)
}

func (g *GeminiClient) GenerateFromDocument(ctx context.Context, prompt string, document []byte, mimeType string, maxOutputTokens int32) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     document,
					},
				},
			},
		},
	}
	return g.generate(ctx, contents, maxOutputTokens)
}

func (g *GeminiClient) generate(ctx context.Context, contents []*genai.Content, maxOutputTokens int32) (string, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return text, nil
}

var _ ModelClient = (*GeminiClient)(nil)
