package split

// viterbi3 is the bounded-window Viterbi decoder over trigram costs.
//
// cell(end, k3, k2) is the weight of the best segmentation of text[0..end]
// whose last two words have k2 and k3 runes. Segmentations with only two
// words are priced with a unigram and a bigram cost. The work is O(N·L³).
type viterbi3 struct{}

// NewViterbi3 returns the trigram Viterbi decoder.
func NewViterbi3() Decoder { return viterbi3{} }

func (viterbi3) Name() string { return DecoderViterbi3 }

func (viterbi3) Decode(q *Query) []Segmentation {
	lt := newLattice(q)
	if lt.n == 0 {
		return nil
	}
	lt.fill3()
	return lt.results()
}

func (lt *lattice) fill3() {
	n, l := lt.n, lt.l
	m, br := lt.m, lt.br

	cells := make([]float64, n*l*l)
	for i := range cells {
		cells[i] = inf
	}
	cell := func(end, len3, len2 int) *float64 {
		return &cells[(end*l+len3-1)*l+len2-1]
	}

	safety := lt.pushFirstWords()
	for end3 := 1; end3 < n; end3++ {
		if !br.Allowed[end3] {
			continue
		}

		for start3 := end3; start3 >= max(1, end3+1-l); start3-- {
			if !br.Allowed[start3-1] {
				continue
			}
			len3 := end3 - start3 + 1
			bestCell := inf

			for start2 := start3 - 1; start2 >= max(0, start3-l); start2-- {
				len2 := start3 - start2
				c := cell(end3, len3, len2)

				if start2 == 0 {
					*c = m.WordWeight(0, start3-1) + m.CondWeight2(0, start3, end3)
					bestCell = min(bestCell, *c)
					break
				}
				if !br.Allowed[start2-1] {
					continue
				}

				for start1 := start2 - 1; start1 >= max(0, start2-l); start1-- {
					if start1 > 0 && !br.Allowed[start1-1] {
						continue
					}
					prev := *cell(start3-1, len2, start2-start1)
					if prev > lt.giveUp {
						continue
					}
					if w := prev + m.CondWeight3(start1, start2, start3, end3); w < *c {
						*c = w
					}
					if start1 > 0 && br.Mandatory[start1-1] {
						break
					}
				}
				bestCell = min(bestCell, *c)

				if br.Mandatory[start2-1] {
					break
				}
			}

			// Nothing reached this last word: extend the best path ending
			// right before it, and record the state under that path's last
			// word so later words can build on it.
			if bestCell == inf && lt.best[start3-1].Found() {
				prev := lt.best[start3-1]
				bestCell = prev.Best + m.WordWeight(start3, end3)
				if prev.ArgBest <= l {
					*cell(end3, len3, prev.ArgBest) = bestCell
				}
			}
			if bestCell < inf {
				lt.best[end3].Push(bestCell, len3)
				*lt.weight(end3, len3) = bestCell
			}

			if br.Mandatory[start3-1] {
				break
			}
		}

		if !lt.best[end3].Found() {
			w, length := lt.positionSafety(end3, safety)
			if start := end3 - length + 1; start > 0 && length <= l {
				if prevLen := lt.best[start-1].ArgBest; prevLen > 0 && prevLen <= l {
					*cell(end3, length, prevLen) = w
				}
			}
		}
		safety = end3 + 1
	}
}
