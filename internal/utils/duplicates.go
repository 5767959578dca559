package utils

import (
	"strings"
)

// VariantFilter drops repeated token sequences and the input sequence itself.
// It is meant for a single request and is not safe for concurrent use.
type VariantFilter struct {
	seen  map[string]bool
	input string
}

// NewVariantFilter creates a filter that treats input as already seen.
func NewVariantFilter(input []string) *VariantFilter {
	key := variantKey(input)
	return &VariantFilter{
		seen:  map[string]bool{key: true},
		input: key,
	}
}

// IsInput reports whether words is the input sequence, compared token by token.
func (f *VariantFilter) IsInput(words []string) bool {
	return variantKey(words) == f.input
}

// ShouldInclude reports whether words was not seen before and marks it seen.
func (f *VariantFilter) ShouldInclude(words []string) bool {
	key := variantKey(words)
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}

// Tokens never contain spaces, so joining on one keeps sequences distinct.
func variantKey(words []string) string {
	return strings.Join(words, " ")
}
