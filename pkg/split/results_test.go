package split

import (
	"reflect"
	"testing"
)

func TestResultsStopsAtSentinel(t *testing.T) {
	r := newResults([]Ranked{
		{Words: Segmentation{"hi", "jack"}, Weight: 1},
		{Words: Segmentation{}, Weight: 2},
		{Words: Segmentation{"hijack"}, Weight: 3},
	}, 1)
	if !r.FellBack() {
		t.Errorf("FellBack() = false, want true")
	}
	if got := r.InputRank(); got != 1 {
		t.Errorf("InputRank() = %d, want 1", got)
	}

	seg, ok := r.Next()
	if !ok || !reflect.DeepEqual(seg, Segmentation{"hi", "jack"}) {
		t.Errorf("first Next() = %v, %v", seg, ok)
	}
	for i := 0; i < 3; i++ {
		if seg, ok := r.Next(); ok || len(seg) != 0 {
			t.Errorf("Next() past the sentinel = %v, %v, want empty, false", seg, ok)
		}
	}
}

func TestResultsCollect(t *testing.T) {
	r := newResults([]Ranked{
		{Words: Segmentation{"a", "b"}},
		{Words: Segmentation{"ab"}},
	}, -1)
	want := []Segmentation{{"a", "b"}, {"ab"}}
	if got := r.Collect(); !reflect.DeepEqual(got, want) {
		t.Errorf("Collect() = %v, want %v", got, want)
	}
	if got := r.Collect(); got != nil {
		t.Errorf("second Collect() = %v, want nil", got)
	}
}

func TestResultsCopiesWords(t *testing.T) {
	items := []Ranked{{Words: Segmentation{"hi", "jack"}}}
	r := newResults(items, -1)

	seg, _ := r.Next()
	seg[0] = "HO"
	if items[0].Words[0] != "hi" {
		t.Errorf("Next() shares storage with the stream")
	}
}
