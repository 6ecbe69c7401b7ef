package searchcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryNormalizer(t *testing.T) {
	n := NewQueryNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Fintech Seed", "fintech seed"},
		{"collapses whitespace", "fintech   seed \t funding", "fintech seed funding"},
		{"strips punctuation", "fintech, seed!", "fintech seed"},
		{"keeps hyphens", "early-stage fintech", "early-stage fintech"},
		{"trims", "  fintech  ", "fintech"},
		{"dedupes consecutive words", "fintech fintech seed", "fintech seed"},
		{"empty", "", ""},
		{"punctuation only", "?!.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestQueryNormalizer_PreservesWordOrder(t *testing.T) {
	n := NewQueryNormalizer()
	assert.NotEqual(t, n.Normalize("seed fintech"), n.Normalize("fintech seed"))
}
