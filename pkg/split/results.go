package split

import "slices"

// Segmentation is a sequence of words whose concatenation is the joined input.
// An empty Segmentation in a result stream is the fallback sentinel.
type Segmentation []string

// Ranked is a segmentation with its trigram weight.
type Ranked struct {
	Words  Segmentation
	Weight float64
}

// Results is the ranked answer to one Split call, read once, best first.
//
// The stream may end with the fallback sentinel: an empty segmentation
// meaning the input as typed is better than anything after it. Once the
// sentinel or the end is reached, Next keeps returning an empty segmentation
// and false.
type Results struct {
	items    []Ranked
	pos      int
	fellBack bool
	inputAt  int
}

func newResults(items []Ranked, inputAt int) *Results {
	r := &Results{items: items, inputAt: inputAt}
	for _, it := range items {
		if len(it.Words) == 0 {
			r.fellBack = true
			break
		}
	}
	return r
}

// Next returns the next segmentation. ok is false at the sentinel and past
// the end, in which case seg is empty.
func (r *Results) Next() (seg Segmentation, ok bool) {
	if r.pos >= len(r.items) {
		return Segmentation{}, false
	}
	it := r.items[r.pos]
	if len(it.Words) == 0 {
		r.pos = len(r.items)
		return Segmentation{}, false
	}
	r.pos++
	return slices.Clone(it.Words), true
}

// Collect drains the remaining segmentations before the sentinel.
func (r *Results) Collect() []Segmentation {
	var out []Segmentation
	for {
		seg, ok := r.Next()
		if !ok {
			return out
		}
		out = append(out, seg)
	}
}

// Ranked drains the remaining segmentations with their weights.
func (r *Results) Ranked() []Ranked {
	var out []Ranked
	for r.pos < len(r.items) && len(r.items[r.pos].Words) > 0 {
		it := r.items[r.pos]
		out = append(out, Ranked{Words: slices.Clone(it.Words), Weight: it.Weight})
		r.pos++
	}
	r.pos = len(r.items)
	return out
}

// FellBack reports whether the stream carries the sentinel, that is whether
// the input as typed ranked among the candidates or nothing better was found.
func (r *Results) FellBack() bool { return r.fellBack }

// InputRank returns how many segmentations rank above the input as typed.
// The sentinel closes the stream, so results after InputRank are worse than
// the input even though they come before the sentinel. It is -1 when the
// stream carries no sentinel.
func (r *Results) InputRank() int { return r.inputAt }

// Len returns the number of stream items, sentinel included.
func (r *Results) Len() int { return len(r.items) }
