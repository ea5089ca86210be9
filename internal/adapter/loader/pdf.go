package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"admissionrag/internal/adapter/fs"
	"admissionrag/internal/domain"
)

// loadPDF emits one document per non-empty page, numbered from 1.
func (l *Loader) loadPDF(ctx context.Context, src domain.Source) ([]domain.Document, error) {
	paths, err := fs.NewWalker(src.Include, src.Exclude).Resolve(src.Path)
	if err != nil {
		return nil, err
	}

	label := src.Label
	if label == "" {
		label = DefaultPDFLabel
	}

	var docs []domain.Document
	for _, path := range paths {
		pages, err := readPDFPages(ctx, path)
		if err != nil {
			return nil, err
		}
		for i, text := range pages {
			if text == "" {
				continue
			}
			docs = append(docs, domain.Document{
				ID:      generateDocID(domain.KindPDF, path, i+1),
				Source:  label,
				Kind:    domain.KindPDF,
				Page:    i + 1,
				Content: text,
			})
		}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", src.Path)
	}
	return docs, nil
}

// maxPDFPages bounds the page count taken from the document's page tree.
const maxPDFPages = 10000

// readPDFPages returns the trimmed text of each page. The pdf reader panics
// on malformed object graphs, so panics are turned into errors here.
func readPDFPages(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("malformed pdf %s: %v", path, rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	n := r.NumPage()
	if n < 0 || n > maxPDFPages {
		return nil, fmt.Errorf("malformed pdf %s: page count %d", path, n)
	}
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d of %s: %w", i, path, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}
