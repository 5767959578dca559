package utils

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LowerRunes lowercases rune by rune so the result has the same length as rs.
func LowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// IsDigit reports whether r is an ASCII or Unicode decimal digit.
func IsDigit(r rune) bool {
	return unicode.IsDigit(r)
}

// IsNumberRune reports whether r may appear inside a number: a digit or an
// interior separator.
func IsNumberRune(r rune) bool {
	return IsDigit(r) || r == '.' || r == ','
}

// CommonPrefixLen returns the number of leading runes shared by a and b.
func CommonPrefixLen(a, b string) int {
	n := 0
	for len(a) > 0 && len(b) > 0 {
		ra, sa := utf8.DecodeRuneInString(a)
		rb, sb := utf8.DecodeRuneInString(b)
		if ra != rb || sa != sb {
			break
		}
		a, b = a[sa:], b[sb:]
		n++
	}
	return n
}

// FormatWithCommas formats an integer with comma separators
func FormatWithCommas(n int) string {
	str := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(char)
	}
	return b.String()
}
