package llm

import "context"

// EchoGenerator returns the prompt unchanged. It stands in for a real model
// offline and in tests.
type EchoGenerator struct{}

func NewEchoGenerator() *EchoGenerator {
	return &EchoGenerator{}
}

func (EchoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return prompt, nil
}

func (EchoGenerator) ModelName() string {
	return "echo"
}
