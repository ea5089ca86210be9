package port

import (
	"context"

	"admissionrag/internal/domain"
)

// DocumentLoader reads one source into documents.
type DocumentLoader interface {
	Load(ctx context.Context, src domain.Source) ([]domain.Document, error)
}

// Fetcher returns the raw text of a scrape target (URL or local HTML file).
type Fetcher interface {
	Fetch(ctx context.Context, target string) (string, error)
}
