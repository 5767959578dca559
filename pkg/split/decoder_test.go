package split

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/bastiangx/wordsplit/pkg/ngram"
)

func TestDecoderByName(t *testing.T) {
	testCases := []struct {
		name    string
		order   int
		want    string
		wantErr bool
	}{
		{"", 2, DecoderViterbi2, false},
		{"auto", 2, DecoderViterbi2, false},
		{"auto", 3, DecoderViterbi3, false},
		{"Viterbi2", 3, DecoderViterbi2, false},
		{" viterbi3 ", 2, DecoderViterbi3, false},
		{"propagation", 3, DecoderPropagation, false},
		{"beam", 3, "", true},
	}

	for _, tc := range testCases {
		dec, err := DecoderByName(tc.name, tc.order)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("DecoderByName(%q) error = %v, want ErrInvalidArgument", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("DecoderByName(%q) unexpected error: %v", tc.name, err)
			continue
		}
		if dec.Name() != tc.want {
			t.Errorf("DecoderByName(%q, %d) = %s, want %s", tc.name, tc.order, dec.Name(), tc.want)
		}
	}
}

func decode(dec Decoder, store ngram.Store, words ...string) []Segmentation {
	return dec.Decode(NewQuery(store, words, DefaultParams()))
}

func TestViterbi2Hijack(t *testing.T) {
	testCases := []struct {
		words []string
		want  []Segmentation
	}{
		{[]string{"hijack"}, []Segmentation{{"hi", "jack"}, {"hijack"}}},
		{[]string{"hi", "jack"}, []Segmentation{{"hi", "jack"}, {"hijack"}}},
		{[]string{"HiJack"}, []Segmentation{{"Hi", "Jack"}, {"HiJack"}}},
	}

	for _, tc := range testCases {
		got := decode(NewViterbi2(), hijackStore(), tc.words...)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("viterbi2 %q = %v, want %v", tc.words, got, tc.want)
		}
	}
}

func TestViterbi3Trigram(t *testing.T) {
	got := decode(NewViterbi3(), trigramStore(), "hijackis")
	want := []Segmentation{{"hi", "jack", "is"}, {"hijack", "is"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("viterbi3 = %v, want %v", got, want)
	}
}

func TestViterbi3OnBigramModel(t *testing.T) {
	got := decode(NewViterbi3(), hijackStore(), "hijack")
	want := []Segmentation{{"hi", "jack"}, {"hijack"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("viterbi3 = %v, want %v", got, want)
	}
}

func TestViterbiDigits(t *testing.T) {
	store := ngram.FromEntries([]ngram.Entry{
		{Key: "420015", Freq: 1000},
		{Key: "42", Freq: 1000},
		{Key: "00", Freq: 1000},
		{Key: "4200", Freq: 2},
		{Key: "15", Freq: 2},
	})

	for _, dec := range []Decoder{NewViterbi2(), NewViterbi3()} {
		for _, words := range [][]string{{"4200", "15"}, {"4200"}} {
			for _, seg := range decode(dec, store, words...) {
				for _, w := range seg {
					if w == "420015" || w == "42" || w == "00" {
						t.Errorf("%s %q produced %v", dec.Name(), words, seg)
					}
				}
			}
		}
	}
}

func TestViterbiLongNumbers(t *testing.T) {
	sevens := strings.Repeat("7", 30)
	short := DefaultParams()
	short.MaxWordLength = 2

	testCases := []struct {
		description string
		words       []string
		params      Params
		want        []Segmentation
	}{
		{"number longer than a word after a forced break", []string{"4", sevens}, DefaultParams(), []Segmentation{{"4", sevens}}},
		{"forced break before a long number", []string{"2", "112"}, short, []Segmentation{{"2", "112"}}},
	}

	for _, tc := range testCases {
		for _, dec := range []Decoder{NewViterbi2(), NewViterbi3()} {
			got := dec.Decode(NewQuery(hijackStore(), tc.words, tc.params))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("%s: %s %q = %v, want %v", tc.description, dec.Name(), tc.words, got, tc.want)
			}
		}
	}
}

func TestLatticeDetour(t *testing.T) {
	none := newBestTwo()
	testCases := []struct {
		description string
		best        []bestTwo
		want        Segmentation
	}{
		{
			"smallest gap wins",
			[]bestTwo{
				{0, inf, 1, -1}, {1, 4, 2, 1}, none,
				{2, 3, 2, 3}, none, {3, 9, 2, 4},
			},
			Segmentation{"a", "bcd", "ef"},
		},
		{
			"first boundary wins a tie",
			[]bestTwo{
				{0, inf, 1, -1}, {1, 4, 2, 1}, none,
				{2, 5, 2, 3}, none, {3, 9, 2, 4},
			},
			Segmentation{"a", "b", "cd", "ef"},
		},
		{
			"no second best anywhere",
			[]bestTwo{
				{0, inf, 1, -1}, {1, inf, 2, -1}, none,
				{2, inf, 2, -1}, none, {3, inf, 2, -1},
			},
			nil,
		},
	}

	for _, tc := range testCases {
		lt := newLattice(NewQuery(hijackStore(), []string{"abcdef"}, DefaultParams()))
		copy(lt.best, tc.best)
		got := lt.detour(Segmentation{"ab", "cd", "ef"})
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: detour = %v, want %v", tc.description, got, tc.want)
		}
	}
}

func TestViterbiGiveUpKeepsBest(t *testing.T) {
	// The input is the best segmentation: the give-up bound built from it
	// must not prune any state on its path.
	testCases := []struct {
		dec   Decoder
		store ngram.Store
		words []string
	}{
		{NewViterbi2(), hijackStore(), []string{"hi", "jack"}},
		{NewViterbi3(), trigramStore(), []string{"hi", "jack", "is"}},
	}

	for _, tc := range testCases {
		tight := DefaultParams()
		tight.WeightHandicap = 0
		loose := DefaultParams()
		loose.WeightHandicap = math.MaxFloat32

		got := tc.dec.Decode(NewQuery(tc.store, tc.words, tight))
		want := tc.dec.Decode(NewQuery(tc.store, tc.words, loose))
		if len(got) == 0 || !reflect.DeepEqual(got[0], Segmentation(tc.words)) {
			t.Errorf("%s %q best = %v, want the input", tc.dec.Name(), tc.words, got)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s %q with no handicap = %v, want %v", tc.dec.Name(), tc.words, got, want)
		}
	}
}

func TestViterbiSingleRune(t *testing.T) {
	for _, dec := range []Decoder{NewViterbi2(), NewViterbi3()} {
		got := decode(dec, hijackStore(), "a")
		want := []Segmentation{{"a"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s single rune = %v, want %v", dec.Name(), got, want)
		}
	}
}

func TestViterbiUnknownText(t *testing.T) {
	// Nothing is known: every position falls back to the safety words and
	// the input survives as the best segmentation.
	for _, dec := range []Decoder{NewViterbi2(), NewViterbi3()} {
		got := decode(dec, hijackStore(), "xyz", "qq")
		if len(got) == 0 {
			t.Errorf("%s returned nothing", dec.Name())
			continue
		}
		if !reflect.DeepEqual(got[0], Segmentation{"xyz", "qq"}) {
			t.Errorf("%s best = %v, want the input", dec.Name(), got[0])
		}
	}
}

func TestPropagationHijack(t *testing.T) {
	dec := NewPropagation()

	got := decode(dec, hijackStore(), "hijack")
	want := []Segmentation{{"hi", "jack"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("propagation hijack = %v, want %v", got, want)
	}

	// Reproducing the input boundaries is no result.
	if got := decode(dec, hijackStore(), "hi", "jack"); got != nil {
		t.Errorf("propagation hi jack = %v, want nil", got)
	}
}

func TestPropagationTrigramStore(t *testing.T) {
	got := decode(NewPropagation(), trigramStore(), "hijackis")
	want := []Segmentation{{"hi", "jack", "is"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("propagation = %v, want %v", got, want)
	}
}

func TestPropagationUnreachable(t *testing.T) {
	// "q" is unknown: only the whole token is reachable from 0, and the
	// input as typed is no result.
	if got := decode(NewPropagation(), hijackStore(), "qhijack"); got != nil {
		t.Errorf("propagation = %v, want nil", got)
	}
}

func TestPointSetRef(t *testing.T) {
	var pt point
	pt.setRef(0, 0, maxLogP)
	pt.setRef(0, 4, 3) // replaces the placeholder
	pt.setRef(1, 2, 5)
	pt.setRef(0, 6, 1)
	pt.setRef(1, 3, 2) // full: the worst is dropped

	want := [refsPerPoint]backRef{{6, 1}, {3, 2}, {4, 3}}
	if pt.count != refsPerPoint || pt.refs != want {
		t.Errorf("refs = %v (count %d), want %v", pt.refs, pt.count, want)
	}
}
