package embedding

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"admissionrag/internal/domain"
)

const geminiBatchSize = 100

type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	batchSize int
	timeout   time.Duration
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string, batchSize int, timeout time.Duration) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, domain.Unavailable("embedding", "gemini", fmt.Errorf("API key not set"))
	}
	if model == "" {
		model = "text-embedding-004"
	}
	if batchSize <= 0 || batchSize > geminiBatchSize {
		batchSize = geminiBatchSize
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.Unavailable("embedding", "gemini", err)
	}

	return &GeminiEmbedder{
		client:    client,
		model:     model,
		batchSize: batchSize,
		timeout:   timeout,
	}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, domain.Unavailable("embedding", "gemini", err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *GeminiEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding values returned for input %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *GeminiEmbedder) ModelName() string {
	return e.model
}
