package searchcache

import (
	"regexp"
	"strings"
)

// QueryNormalizer preprocesses raw query text so logically identical
// queries map to the same cache key.
type QueryNormalizer interface {
	Normalize(query string) string
}

// DefaultQueryNormalizer lowercases, strips punctuation, and collapses
// whitespace. It deliberately does not reorder words: "fintech seed"
// and "seed fintech" are different searches to the query engine.
type DefaultQueryNormalizer struct {
	whitespaceRegex  *regexp.Regexp
	punctuationRegex *regexp.Regexp
}

// NewQueryNormalizer creates a normalizer with default settings
func NewQueryNormalizer() QueryNormalizer {
	return &DefaultQueryNormalizer{
		whitespaceRegex:  regexp.MustCompile(`\s+`),
		punctuationRegex: regexp.MustCompile(`[^\w\s-]`),
	}
}

// Normalize processes a query for consistent key derivation
func (n *DefaultQueryNormalizer) Normalize(query string) string {
	if query == "" {
		return ""
	}

	normalized := strings.ToLower(query)
	normalized = n.punctuationRegex.ReplaceAllString(normalized, " ")
	normalized = n.whitespaceRegex.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)

	words := strings.Fields(normalized)
	deduped := deduplicateConsecutive(words)

	return strings.Join(deduped, " ")
}

// deduplicateConsecutive removes consecutive duplicate words
func deduplicateConsecutive(words []string) []string {
	if len(words) <= 1 {
		return words
	}

	result := make([]string, 0, len(words))
	result = append(result, words[0])

	for i := 1; i < len(words); i++ {
		if words[i] != words[i-1] {
			result = append(result, words[i])
		}
	}

	return result
}
