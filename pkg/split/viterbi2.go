package split

// viterbi2 is the bounded-window Viterbi decoder over bigram costs.
//
// cell(end, k) is the weight of the best segmentation of text[0..end] whose
// last word has k runes. Filling it looks at every previous word of at most
// L runes, so the work is O(N·L²).
type viterbi2 struct{}

// NewViterbi2 returns the bigram Viterbi decoder.
func NewViterbi2() Decoder { return viterbi2{} }

func (viterbi2) Name() string { return DecoderViterbi2 }

func (viterbi2) Decode(q *Query) []Segmentation {
	lt := newLattice(q)
	if lt.n == 0 {
		return nil
	}
	lt.fill2()
	return lt.results()
}

func (lt *lattice) fill2() {
	n, l := lt.n, lt.l
	m, br := lt.m, lt.br

	cell := lt.weight

	safety := lt.pushFirstWords()
	for end2 := 1; end2 < n; end2++ {
		if !br.Allowed[end2] {
			continue
		}

		for start2 := end2; start2 >= max(1, end2+1-l); start2-- {
			if !br.Allowed[start2-1] {
				continue
			}
			len2 := end2 - start2 + 1
			c := cell(end2, len2)

			for start1 := start2 - 1; start1 >= max(0, start2-l); start1-- {
				if start1 > 0 && !br.Allowed[start1-1] {
					continue
				}
				prev := *cell(start2-1, start2-start1)
				if prev > lt.giveUp {
					continue
				}
				if w := prev + m.CondWeight2(start1, start2, end2); w < *c {
					*c = w
				}
				if start1 > 0 && br.Mandatory[start1-1] {
					break
				}
			}

			// Nothing reached this state: extend the best path ending
			// right before the word.
			if *c == inf && lt.best[start2-1].Found() {
				*c = lt.best[start2-1].Best + m.WordWeight(start2, end2)
			}
			if *c < inf {
				lt.best[end2].Push(*c, len2)
			}

			if br.Mandatory[start2-1] {
				break
			}
		}

		if !lt.best[end2].Found() {
			lt.positionSafety(end2, safety)
		}
		safety = end2 + 1
	}
}
