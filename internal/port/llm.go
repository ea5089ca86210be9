package port

import "context"

// GenerationProvider represents a language model for text generation.
type GenerationProvider interface {
	// Generate returns the model's answer to prompt verbatim.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
