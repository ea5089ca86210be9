package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"admissionrag/internal/domain"
)

// loadScrape fetches one target through the scraper and labels the result
// with the source label, typically the admissions period it covers.
func (l *Loader) loadScrape(ctx context.Context, src domain.Source) ([]domain.Document, error) {
	if l.fetcher == nil {
		return nil, errors.New("no scraper configured")
	}
	target := src.URL
	if target == "" {
		target = src.Path
	}

	text, err := l.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text scraped from %s", target)
	}

	label := src.Label
	if label == "" {
		label = target
	}
	return []domain.Document{{
		ID:      generateDocID(domain.KindScrape, target, 0),
		Source:  label,
		Kind:    domain.KindScrape,
		Content: text,
	}}, nil
}
