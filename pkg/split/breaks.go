package split

import (
	"github.com/bastiangx/wordsplit/internal/utils"
)

// Breaks tells where the joined text may or must be split.
// Allowed[pos] and Mandatory[pos] refer to a break right after pos.
type Breaks struct {
	Allowed   []bool
	Mandatory []bool

	// lastMandatory[pos] is the largest q < pos with Mandatory[q], or -1.
	lastMandatory []int
}

// NewBreaks derives the break vectors from the input tokens:
// digits glued inside one token stay together, and a token ending in a digit
// is never merged with a following token that starts with one.
func NewBreaks(words []string) *Breaks {
	var n int
	tokens := make([][]rune, len(words))
	for i, w := range words {
		tokens[i] = []rune(w)
		n += len(tokens[i])
	}

	b := &Breaks{
		Allowed:       make([]bool, n),
		Mandatory:     make([]bool, n),
		lastMandatory: make([]int, n),
	}
	for i := range b.Allowed {
		b.Allowed[i] = true
	}

	pos := 0
	for i, token := range tokens {
		for j := 1; j < len(token); j++ {
			if utils.IsDigit(token[j-1]) && utils.IsDigit(token[j]) {
				b.Allowed[pos+j-1] = false
			}
		}
		if i > 0 && len(token) > 0 {
			prev := tokens[i-1]
			if len(prev) > 0 && utils.IsDigit(prev[len(prev)-1]) && utils.IsDigit(token[0]) {
				b.Mandatory[pos-1] = true
			}
		}
		pos += len(token)
	}

	last := -1
	for p := 0; p < n; p++ {
		b.Allowed[p] = b.Allowed[p] || b.Mandatory[p]
		b.lastMandatory[p] = last
		if b.Mandatory[p] {
			last = p
		}
	}
	return b
}

// CanStartAt reports whether a word may start at s.
func (b *Breaks) CanStartAt(s int) bool {
	return s == 0 || b.Allowed[s-1]
}

// CanEndAt reports whether a word may end at e.
func (b *Breaks) CanEndAt(e int) bool {
	return b.Allowed[e]
}

// Permits reports whether [s, e] can be a word of the result: it starts and
// ends on allowed breaks and does not cross a mandatory one.
func (b *Breaks) Permits(s, e int) bool {
	return b.CanStartAt(s) && b.CanEndAt(e) && b.lastMandatory[e] < s
}

// WordStart returns the smallest start of a word ending at e that is at most
// maxLen runes long and does not cross a mandatory break.
func (b *Breaks) WordStart(e, maxLen int) int {
	return max(e+1-maxLen, b.lastMandatory[e]+1, 0)
}
