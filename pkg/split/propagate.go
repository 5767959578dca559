package split

import (
	"math"
)

// maxLogP marks a placeholder back reference: a token end that no
// dictionary word reached yet.
const maxLogP = 100000

// refsPerPoint is how many candidate words ending at a point are kept.
const refsPerPoint = 3

type backRef struct {
	length int
	logP   float64
}

// point is a position between two runes of the joined text.
type point struct {
	refs    [refsPerPoint]backRef // sorted by logP
	count   int
	freq    uint32  // frequency of the best word ending here
	forward int     // length of the chosen word starting here
	p       float64 // probability propagated from the end of the text
	off     int     // rune offset inside the input token
}

// setRef inserts a back reference at index, dropping the last one when full.
// A placeholder is always replaced by the first real reference.
func (pt *point) setRef(index, length int, logP float64) {
	if pt.count > 0 && pt.refs[0].logP > maxLogP-1 {
		pt.count = 0
		index = 0
	}
	if pt.count >= refsPerPoint {
		pt.count--
	}
	copy(pt.refs[index+1:pt.count+1], pt.refs[index:pt.count])
	pt.refs[index] = backRef{length: length, logP: logP}
	pt.count++
}

// propagation finds one segmentation in two passes. The forward pass
// collects up to three likely words ending at every point. The backward pass
// pushes probability from the end of the text to the start, using the bigram
// with the word already chosen after a point when the store has it, and keeps
// the best word to start at every point. Points the backward pass never
// reaches make the decoder give up.
type propagation struct{}

// NewPropagation returns the point-propagation decoder.
func NewPropagation() Decoder { return propagation{} }

func (propagation) Name() string { return DecoderPropagation }

func (propagation) Decode(q *Query) []Segmentation {
	if q.Model.N() == 0 {
		return nil
	}
	r := newPropRequest(q)
	r.forward()
	r.backward()
	if seg := r.build(); seg != nil {
		return []Segmentation{seg}
	}
	return nil
}

type propRequest struct {
	q        *Query
	m        *Model
	n        int
	points   []point
	maxFreq  float64
	minFreq  uint32
	goodFreq uint32
	maxLen   int
}

func newPropRequest(q *Query) *propRequest {
	m := q.Model
	p := m.Params()
	maxFreq := uint64(m.MaxFreq())
	r := &propRequest{
		q:        q,
		m:        m,
		n:        m.N(),
		points:   make([]point, m.N()+1),
		maxFreq:  m.MaxFreq(),
		minFreq:  uint32(maxFreq >> p.MinFreqShift),
		goodFreq: uint32(maxFreq >> p.GoodFreqShift),
		maxLen:   p.PropagationMaxWordLength,
	}

	for i := range r.points {
		r.points[i].setRef(0, 0, maxLogP)
	}
	r.points[0].setRef(0, 0, 0)

	pos := 0
	for _, w := range q.Words {
		start := pos
		for range w {
			r.points[pos].off = pos - start
			pos++
		}
		r.points[pos].setRef(0, pos-start, maxLogP)
	}
	return r
}

func (r *propRequest) forward() {
	br := r.q.Breaks
	for i := 1; i <= r.n; i++ {
		pt := &r.points[i]

		// Longest words first: an alternative is only kept when it beats
		// what the longer words already gave.
		for j := max(0, i-r.maxLen); j < i; j++ {
			length := i - j
			if length > r.m.PrefixLen(j) || !br.Permits(j, i-1) {
				continue
			}
			freq, _ := r.m.Lookup(j, i-1)
			if freq <= r.minFreq {
				continue
			}
			logP := 2*math.Log2(r.maxFreq/float64(freq)) + r.points[j].refs[0].logP

			count := max(pt.count, 1)
			k := 0
			for ; k < count; k++ {
				if logP < pt.refs[k].logP {
					break
				}
			}
			if k == count {
				if pt.freq >= r.goodFreq || k == refsPerPoint {
					continue
				}
				if freq <= pt.freq || r.points[j].freq <= pt.freq {
					continue
				}
			}
			if k == 0 {
				pt.freq = freq
			}
			pt.setRef(k, length, logP)
		}
	}
}

func (r *propRequest) backward() {
	n := r.n
	r.points[n].p = 1
	r.points[n].forward = n

	minPos, maxP := n, 1.0
	for i := n; i != 0; {
		pt := &r.points[i]
		if pt.p < maxP {
			pt.count = 0
		}

		for k := 0; k < pt.count; k++ {
			length := pt.refs[k].length
			if length == 0 {
				continue
			}
			j := i - length
			freq, cursor := r.m.Lookup(j, i-1)

			p := 0.0
			nextEnd := min(i+pt.forward, n)
			if cursor.Valid() && nextEnd > i && pt.p != 1 {
				if nextFreq, _ := r.m.Lookup(i, nextEnd-1); nextFreq != 0 {
					p = float64(r.m.FreqAfter(cursor, i, nextEnd-1)) / float64(nextFreq)
				}
			}
			if p == 0 {
				p = float64(max(r.minFreq, freq)) / r.maxFreq
			}
			p *= pt.p

			pj := &r.points[j]
			if pj.forward == 0 || p > pj.p {
				pj.forward = length
				pj.p = p
				if j <= minPos {
					minPos = j
					maxP = p
				}
			}
		}

		for i--; i > minPos; i-- {
			if r.points[i].forward != 0 {
				break
			}
		}
		if i == minPos {
			r.points[i].p = 1
			maxP = 1
		}
	}
}

// build follows forward references from 0. It returns nil when a point has
// none, or when the result only reproduces the input tokens.
func (r *propRequest) build() Segmentation {
	var out Segmentation
	changed := false
	for i := 0; i != r.n; {
		length := r.points[i].forward
		if length == 0 || i+length > r.n {
			return nil
		}
		out = append(out, r.m.WordAt(i, i+length-1))
		if r.points[i].off != 0 {
			changed = true
		}
		i += length
	}
	if len(out) != len(r.q.Words) {
		changed = true
	}
	if !changed {
		return nil
	}
	return out
}
