package split

import (
	"fmt"
	"strings"
)

// tracer is a decoder that can render its lattice for a query.
type tracer interface {
	trace(q *Query) string
}

func (viterbi2) trace(q *Query) string {
	lt := newLattice(q)
	if lt.n == 0 {
		return ""
	}
	lt.fill2()
	return lt.trace()
}

func (viterbi3) trace(q *Query) string {
	lt := newLattice(q)
	if lt.n == 0 {
		return ""
	}
	lt.fill3()
	return lt.trace()
}

const traceColumn = 13

// trace renders a filled lattice. The header holds one rune per column and
// row k holds, per end position, the weight of the best segmentation whose
// last word has k runes and that word's first rune. '*' marks the best last
// word of a column, '!' the one the detour takes instead. The two greedy
// variants follow with their lattice and trigram weights.
func (lt *lattice) trace() string {
	var b strings.Builder
	for end := 0; end < lt.n; end++ {
		fmt.Fprintf(&b, "%-*s", traceColumn, lt.m.WordAt(end, end))
	}
	b.WriteByte('\n')

	first := lt.greedy(lt.n)
	detourPos, detourLen := -1, -1
	if first != nil {
		if pos, _ := lt.detourPoint(first); pos >= 0 {
			detourPos, detourLen = pos, lt.best[pos].ArgSecondBest
		}
	}

	for length := 1; length <= lt.l; length++ {
		for end := 0; end < lt.n; end++ {
			w := inf
			if end+1 >= length {
				w = *lt.weight(end, length)
			}
			if w == inf {
				fmt.Fprintf(&b, "%-*s", traceColumn, " -")
				continue
			}
			mark := " "
			switch {
			case end == detourPos && length == detourLen:
				mark = "!"
			case length == lt.best[end].ArgBest:
				mark = "*"
			}
			start := end - length + 1
			cell := fmt.Sprintf("%s%.5g(%s)", mark, w, lt.m.WordAt(start, start))
			fmt.Fprintf(&b, "%-*s", traceColumn, cell)
		}
		b.WriteByte('\n')
	}

	if first == nil {
		b.WriteString("no segmentation reaches the end\n")
		return b.String()
	}
	fmt.Fprintf(&b, "best (greedy %.4g, trigram %.4g): %s\n",
		lt.best[lt.n-1].Best, lt.m.PhraseWeight3(first), strings.Join(first, " "))
	if second := lt.detour(first); second != nil {
		d := lt.best[detourPos]
		fmt.Fprintf(&b, "second (greedy +%.4g, trigram %.4g): %s\n",
			d.SecondBest-d.Best, lt.m.PhraseWeight3(second), strings.Join(second, " "))
	}
	return b.String()
}
