package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"admissionrag/internal/domain"
)

// DefaultSeparators are tried in order, coarsest first. The empty separator
// splits between arbitrary characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

// span is a byte range [start, end) of a document's content.
type span struct {
	start, end int
}

// RecursiveChunker splits text on the coarsest separator that occurs in it,
// greedily merges the pieces up to maxSize characters and recurses with the
// finer separators into pieces that are still too large.
type RecursiveChunker struct {
	maxSize    int
	overlap    int
	separators []string
}

func NewRecursiveChunker(maxSize, overlap int, separators []string) (*RecursiveChunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, maxSize)
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &RecursiveChunker{
		maxSize:    maxSize,
		overlap:    overlap,
		separators: append([]string(nil), separators...),
	}, nil
}

func (c *RecursiveChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	if doc.ID == "" {
		return nil, errors.New("document has no id")
	}
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	spans := c.split(content, span{0, len(content)}, c.separators)

	chunks := make([]domain.Chunk, 0, len(spans))
	prevEnd := -1
	for _, s := range spans {
		// wholly inside its predecessor, nothing new to add
		if s.end <= prevEnd {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:     generateChunkID(doc.ID, s.start, s.end),
			DocID:  doc.ID,
			Source: doc.Source,
			Page:   doc.Page,
			Index:  len(chunks),
			Start:  s.start,
			End:    s.end,
			Text:   content[s.start:s.end],
		})
		prevEnd = s.end
	}
	return chunks, nil
}

func (c *RecursiveChunker) split(text string, s span, separators []string) []span {
	sep, rest, ok := pickSeparator(text[s.start:s.end], separators)
	if !ok {
		if t, ok := trimSpan(text, s); ok {
			return []span{t}
		}
		return nil
	}

	var out, good []span
	for _, p := range cut(text, s, sep) {
		if runeLen(text, p) <= c.maxSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			out = append(out, c.merge(text, good)...)
			good = nil
		}
		if len(rest) == 0 {
			// atomic unit larger than maxSize, kept whole
			if t, ok := trimSpan(text, p); ok {
				out = append(out, t)
			}
			continue
		}
		out = append(out, c.split(text, p, rest)...)
	}
	if len(good) > 0 {
		out = append(out, c.merge(text, good)...)
	}
	return out
}

// merge packs consecutive pieces into chunks of at most maxSize characters.
// Each new chunk starts with a tail of the previous one of at most overlap
// characters.
func (c *RecursiveChunker) merge(text string, pieces []span) []span {
	var out []span
	var cur []span
	var lens []int
	total := 0

	for _, p := range pieces {
		n := runeLen(text, p)
		if total+n > c.maxSize && len(cur) > 0 {
			if t, ok := trimSpan(text, span{cur[0].start, cur[len(cur)-1].end}); ok {
				out = append(out, t)
			}
			for len(cur) > 0 && (total > c.overlap || total+n > c.maxSize) {
				total -= lens[0]
				cur = cur[1:]
				lens = lens[1:]
			}
		}
		cur = append(cur, p)
		lens = append(lens, n)
		total += n
	}
	if len(cur) > 0 {
		if t, ok := trimSpan(text, span{cur[0].start, cur[len(cur)-1].end}); ok {
			out = append(out, t)
		}
	}
	return out
}

// pickSeparator returns the first separator that occurs in text and the finer
// separators after it.
func pickSeparator(text string, separators []string) (string, []string, bool) {
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			return sep, separators[i+1:], true
		}
	}
	return "", nil, false
}

// cut splits s after every occurrence of sep, keeping the separator at the
// end of the preceding piece. The empty separator yields one piece per rune.
func cut(text string, s span, sep string) []span {
	var out []span
	if sep == "" {
		for i := s.start; i < s.end; {
			_, w := utf8.DecodeRuneInString(text[i:s.end])
			out = append(out, span{i, i + w})
			i += w
		}
		return out
	}

	start := s.start
	for {
		idx := strings.Index(text[start:s.end], sep)
		if idx < 0 {
			break
		}
		end := start + idx + len(sep)
		out = append(out, span{start, end})
		start = end
	}
	if start < s.end {
		out = append(out, span{start, s.end})
	}
	return out
}

func trimSpan(text string, s span) (span, bool) {
	seg := text[s.start:s.end]
	left := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
	right := len(strings.TrimRightFunc(seg, unicode.IsSpace))
	if left >= right {
		return span{}, false
	}
	return span{s.start + left, s.start + right}, true
}

func runeLen(text string, s span) int {
	return utf8.RuneCountInString(text[s.start:s.end])
}

func generateChunkID(docID string, start, end int) string {
	data := fmt.Sprintf("%s:%d-%d", docID, start, end)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
