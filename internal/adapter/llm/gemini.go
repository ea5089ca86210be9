package llm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"

	"admissionrag/internal/domain"
)

type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float64, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, domain.Unavailable("generation", "gemini", errors.New("API key not set"))
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.Unavailable("generation", "gemini", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		timeout:     timeout,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)},
	)
	if err != nil {
		return "", domain.Unavailable("generation", "gemini", err)
	}
	return resp.Text(), nil
}

func (g *GeminiGenerator) ModelName() string {
	return g.model
}
