package loader

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"admissionrag/internal/adapter/fs"
	"admissionrag/internal/domain"
)

// loadText reads every file the source path resolves to as one document.
func (l *Loader) loadText(ctx context.Context, src domain.Source) ([]domain.Document, error) {
	paths, err := fs.NewWalker(src.Include, src.Exclude).Resolve(src.Path)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if !utf8.ValidString(content) {
			return nil, fmt.Errorf("%s is not valid UTF-8", path)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		label := src.Label
		if label == "" {
			label = path
		}
		docs = append(docs, domain.Document{
			ID:      generateDocID(domain.KindText, path, 0),
			Source:  label,
			Kind:    domain.KindText,
			Content: content,
		})
	}
	return docs, nil
}
