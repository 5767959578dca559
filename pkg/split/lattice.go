package split

import (
	"math"
	"slices"
	"unicode/utf8"
)

var inf = math.Inf(1)

// lattice is the scaffold shared by the bounded-window Viterbi decoders.
//
// best[pos] holds the two cheapest segmentations of text[0..pos] found so
// far, each identified by the length of its last word. Walking ArgBest from
// the end rebuilds the best segmentation of any prefix.
//
// weights[end*l+k-1] is the cheapest segmentation of text[0..end] whose last
// word has k runes.
type lattice struct {
	m       *Model
	br      *Breaks
	n       int
	l       int // min(n, MaxWordLength)
	giveUp  float64
	best    []bestTwo
	weights []float64
}

func newLattice(q *Query) *lattice {
	n := q.Model.N()
	p := q.Model.Params()
	lt := &lattice{
		m:      q.Model,
		br:     q.Breaks,
		n:      n,
		l:      min(n, p.MaxWordLength),
		giveUp: q.Model.PhraseWeight2(q.Words) + p.WeightHandicap,
		best:   make([]bestTwo, n),
	}
	for i := range lt.best {
		lt.best[i] = newBestTwo()
	}
	lt.weights = make([]float64, n*lt.l)
	for i := range lt.weights {
		lt.weights[i] = inf
	}
	return lt
}

func (lt *lattice) weight(end, length int) *float64 {
	return &lt.weights[end*lt.l+length-1]
}

// pushFirstWords seeds every prefix that fits in one word and returns the
// first safety position: the start of the word after the allowed break
// closest to the start, or 0 when there is none yet.
func (lt *lattice) pushFirstWords() int {
	for end := 0; end < lt.l; end++ {
		w := lt.m.WordWeight(0, end)
		*lt.weight(end, end+1) = w
		lt.best[end].Push(w, end+1)
		if lt.br.Mandatory[end] {
			break
		}
	}
	if lt.n > 1 && lt.br.Allowed[0] {
		return 1
	}
	return 0
}

// positionSafety makes sure an allowed end is reachable. When no word
// ending at end was found, the text back to safety (the position after the
// previous allowed end) becomes a single word. The word never reaches back
// over a mandatory break. It returns the weight pushed and the word length.
func (lt *lattice) positionSafety(end, safety int) (float64, int) {
	safety = max(safety, lt.br.lastMandatory[end]+1)
	weight := lt.m.WordWeight(safety, end)
	if safety > 0 {
		weight += lt.best[safety-1].Best + lt.m.Params().BigramToUnigramBackoff
	}
	length := end - safety + 1
	lt.best[end].Push(weight, length)
	if length <= lt.l {
		*lt.weight(end, length) = weight
	}
	return weight, length
}

// greedy walks ArgBest back from prefixLen-1. It returns nil if the walk
// does not land exactly on position 0.
func (lt *lattice) greedy(prefixLen int) Segmentation {
	var words Segmentation
	end := prefixLen - 1
	for end >= 0 {
		length := lt.best[end].ArgBest
		if length <= 0 || length > end+1 {
			return nil
		}
		words = append(words, lt.m.WordAt(end-length+1, end))
		end -= length
	}
	slices.Reverse(words)
	return words
}

// detourPoint finds the word boundary of bestVariant where taking the second
// best last word costs the least. It returns the end position and the index
// of the word ending there, or -1, -1 when no boundary has a second best.
func (lt *lattice) detourPoint(bestVariant Segmentation) (int, int) {
	detourPos, detourWord := -1, -1
	penalty := inf
	pos := -1
	for i, w := range bestVariant {
		pos += utf8.RuneCountInString(w)
		b := lt.best[pos]
		if b.ArgSecondBest < 0 {
			continue
		}
		if gap := b.SecondBest - b.Best; detourPos < 0 || gap < penalty {
			penalty, detourPos, detourWord = gap, pos, i
		}
	}
	return detourPos, detourWord
}

// detour swaps one word of bestVariant for the second best last word at the
// boundary where that costs the least, keeping the best path before it.
func (lt *lattice) detour(bestVariant Segmentation) Segmentation {
	detourPos, detourWord := lt.detourPoint(bestVariant)
	if detourPos < 0 {
		return nil
	}

	length := lt.best[detourPos].ArgSecondBest
	start := detourPos - length + 1
	if start < 0 {
		return nil
	}
	var result Segmentation
	if start > 0 {
		if result = lt.greedy(start); result == nil {
			return nil
		}
	}
	result = append(result, lt.m.WordAt(start, detourPos))
	return append(result, bestVariant[detourWord+1:]...)
}

// results returns the best variant and, when there is one, its detour.
func (lt *lattice) results() []Segmentation {
	if lt.n == 0 {
		return nil
	}
	first := lt.greedy(lt.n)
	if first == nil {
		return nil
	}
	out := []Segmentation{first}
	if second := lt.detour(first); second != nil {
		out = append(out, second)
	}
	return out
}
