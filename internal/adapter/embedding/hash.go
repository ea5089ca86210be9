package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"admissionrag/internal/adapter/analyzer"
)

const defaultHashDimension = 256

// HashEmbedder maps text to vectors by feature hashing over word tokens and
// character bigrams. It needs no network access and always returns the same
// vector for the same text.
type HashEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = defaultHashDimension
	}
	return &HashEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(),
	}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.embed(text)
	}
	return embeddings, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float64, e.dimension)

	features := e.tokenizer.Features(text)
	if len(features) == 0 && text != "" {
		features = []string{"r:" + text}
	}
	for _, f := range features {
		weight := 1.0
		if f[0] == 'b' {
			weight = 0.5
		}
		h := fnv.New64a()
		h.Write([]byte(f))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		if sum>>63 == 1 {
			weight = -weight
		}
		vec[idx] += weight
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dimension)
	if norm == 0 {
		return out
	}
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out
}

func (e *HashEmbedder) ModelName() string {
	return "hash"
}
