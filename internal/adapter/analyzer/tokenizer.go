package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits text into lowercase word tokens and drops stopwords.
// Korean words keep their attached particles; Features adds character
// bigrams so "경쟁률은" and "경쟁률" still share most of their features.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
	}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if utf8.RuneCountInString(word) < 2 && !isNumber(word) {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// Features returns the word tokens of text prefixed with "w:" followed by the
// character bigrams of each token prefixed with "b:".
func (t *Tokenizer) Features(text string) []string {
	tokens := t.Tokenize(text)
	features := make([]string, 0, len(tokens)*3)
	for _, tok := range tokens {
		features = append(features, "w:"+tok)
	}
	for _, tok := range tokens {
		runes := []rune(tok)
		for i := 0; i+1 < len(runes); i++ {
			features = append(features, "b:"+string(runes[i:i+2]))
		}
	}
	return features
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// defaultStopwords returns common English and Korean function words.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"or", "so", "no", "can", "do", "does", "did", "what", "how",
		"및", "또는", "등", "그리고", "하지만", "그러나", "또한",
		"이", "그", "저", "것", "수", "때", "위해", "대한", "대해",
		"있다", "있는", "없다", "한다", "하는", "해줘", "알려줘", "주세요",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
