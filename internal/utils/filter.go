package utils

import (
	"unicode"
)

// ContainsSpace checks if a string contains any whitespace
func ContainsSpace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

// IsValidToken checks if a token can be fed to the splitter:
// non-empty and free of whitespace.
func IsValidToken(s string) bool {
	return len(s) > 0 && !ContainsSpace(s)
}
