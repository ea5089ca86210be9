package scraper

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapFetcher map[string]string

func (m mapFetcher) Fetch(ctx context.Context, target string) (string, error) {
	text, ok := m[target]
	if !ok {
		return "", errors.New("status 404")
	}
	return text, nil
}

func TestDump(t *testing.T) {
	fetcher := mapFetcher{
		"https://a.example/ratio": "경제학과 | 3.5:1",
		"https://c.example/ratio": "경영학부 | 7.1:1",
	}
	targets := []string{"https://a.example/ratio", "https://b.example/ratio", "https://c.example/ratio"}

	var buf bytes.Buffer
	result, err := Dump(context.Background(), fetcher, targets, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, result.Written)
	require.Len(t, result.Failed, 1)
	require.Contains(t, result.Failed, "https://b.example/ratio")

	want := "\n=== URL: https://a.example/ratio ===\n경제학과 | 3.5:1\n\n" +
		"\n=== URL: https://c.example/ratio ===\n경영학부 | 7.1:1\n\n"
	require.Equal(t, want, buf.String())
}

func TestDumpCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := Dump(ctx, mapFetcher{"x": "y"}, []string{"x"}, &buf)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, buf.String())
}
