package scraper

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"admissionrag/internal/logutil"
	"admissionrag/internal/port"
)

// DumpResult reports how many targets were written and which failed.
type DumpResult struct {
	Written int
	Failed  map[string]error
}

// Dump fetches every target and writes its text to w as a
// "=== URL: <target> ===" section. A failed target is logged and skipped;
// only write errors and cancellation abort the dump.
func Dump(ctx context.Context, fetcher port.Fetcher, targets []string, w io.Writer) (*DumpResult, error) {
	logger := logutil.GetLogger(ctx)
	result := &DumpResult{Failed: make(map[string]error)}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		text, err := fetcher.Fetch(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("skipping scrape target", zap.String("target", target), zap.Error(err))
			result.Failed[target] = err
			continue
		}

		if _, err := fmt.Fprintf(w, "\n=== URL: %s ===\n%s\n\n", target, text); err != nil {
			return result, fmt.Errorf("failed to write %s: %w", target, err)
		}
		result.Written++
	}
	return result, nil
}
