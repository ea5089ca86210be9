package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"admissionrag/internal/domain"
)

type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

func NewOpenAIGenerator(apiKey, model, baseURL string, temperature float64, timeout time.Duration) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, domain.Unavailable("generation", "openai", errors.New("API key not set"))
	}
	if model == "" {
		model = "gpt-4o"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(g.model),
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		return "", domain.Unavailable("generation", "openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.Unavailable("generation", "openai", fmt.Errorf("no choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) ModelName() string {
	return g.model
}
