package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"admissionrag/internal/domain"
	"admissionrag/internal/port"
)

// DefaultPDFLabel is the source label of PDF pages without a configured label.
const DefaultPDFLabel = "PDF"

// Loader turns configured sources into documents. Every failure is reported
// as a *domain.SourceLoadError so callers can skip the source and go on.
type Loader struct {
	fetcher port.Fetcher
}

// New returns a loader. fetcher may be nil when no scrape sources are used.
func New(fetcher port.Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

func (l *Loader) Load(ctx context.Context, src domain.Source) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []domain.Document
	var err error
	switch src.Kind {
	case domain.KindText:
		docs, err = l.loadText(ctx, src)
	case domain.KindPDF:
		docs, err = l.loadPDF(ctx, src)
	case domain.KindScrape:
		docs, err = l.loadScrape(ctx, src)
	default:
		err = fmt.Errorf("unknown source kind %q", src.Kind)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.SourceLoadError{Source: src.Name(), Kind: src.Kind, Err: err}
	}
	return docs, nil
}

func generateDocID(kind, location string, page int) string {
	data := fmt.Sprintf("%s:%s:%d", kind, location, page)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
