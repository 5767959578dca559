package split

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordsplit/pkg/ngram"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var allDecoders = []string{DecoderViterbi2, DecoderViterbi3, DecoderPropagation}

func newSplitter(t *testing.T, store ngram.Store, opts ...Option) *Splitter {
	t.Helper()
	s, err := New(store, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

// drain reads the whole stream, sentinel included, as it is emitted.
func drain(r *Results) []Segmentation {
	var out []Segmentation
	for i := 0; i < r.Len(); i++ {
		seg, ok := r.Next()
		out = append(out, seg)
		if !ok {
			break
		}
	}
	return out
}

func TestSplitHijack(t *testing.T) {
	testCases := []struct {
		description string
		decoder     string
		words       []string
		want        []Segmentation
	}{
		{"split a glued word", DecoderViterbi2, []string{"hijack"}, []Segmentation{{"hi", "jack"}, {}}},
		{"merge a split word", DecoderViterbi2, []string{"hi", "jack"}, []Segmentation{{"hijack"}, {}}},
		{"trigram decoder", DecoderViterbi3, []string{"hijack"}, []Segmentation{{"hi", "jack"}, {}}},
		{"propagation", DecoderPropagation, []string{"hijack"}, []Segmentation{{"hi", "jack"}}},
		{"propagation keeps the input", DecoderPropagation, []string{"hi", "jack"}, []Segmentation{{}}},
	}

	for _, tc := range testCases {
		s := newSplitter(t, hijackStore(), WithDecoder(tc.decoder))
		results, err := s.Split(tc.words, 10)
		if err != nil {
			t.Errorf("%s: Split failed: %v", tc.description, err)
			continue
		}
		if got := drain(results); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: Split(%q) = %v, want %v", tc.description, tc.words, got, tc.want)
		}
	}
}

func TestSplitTrigramOrdering(t *testing.T) {
	s := newSplitter(t, trigramStore())
	if s.Decoder() != DecoderViterbi3 {
		t.Fatalf("auto decoder = %s, want %s", s.Decoder(), DecoderViterbi3)
	}

	results, err := s.Split([]string{"hijackis"}, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	// The input costs 500 as an unknown token and never ranks.
	if results.FellBack() {
		t.Errorf("FellBack() = true, want false")
	}

	ranked := results.Ranked()
	want := []Segmentation{{"hi", "jack", "is"}, {"hijack", "is"}}
	if len(ranked) != len(want) {
		t.Fatalf("got %d results, want %d", len(ranked), len(want))
	}
	for i, r := range ranked {
		if !reflect.DeepEqual(r.Words, want[i]) {
			t.Errorf("result %d = %v, want %v", i, r.Words, want[i])
		}
		if i > 0 && ranked[i-1].Weight > r.Weight {
			t.Errorf("result %d weight %v is below result %d weight %v", i, r.Weight, i-1, ranked[i-1].Weight)
		}
	}

	if seg, ok := results.Next(); ok || len(seg) != 0 {
		t.Errorf("Next after Ranked = %v, %v, want empty, false", seg, ok)
	}
}

func TestSplitHandicap(t *testing.T) {
	p := DefaultParams()
	p.SecondBestHandicap = 1
	s := newSplitter(t, trigramStore(), WithParams(p))

	results, err := s.Split([]string{"hijackis"}, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	// "hijack is" is 3.32 behind the best.
	want := []Segmentation{{"hi", "jack", "is"}}
	if got := results.Collect(); !reflect.DeepEqual(got, want) {
		t.Errorf("Collect() = %v, want %v", got, want)
	}
}

func TestSplitVariantCap(t *testing.T) {
	s := newSplitter(t, trigramStore())

	testCases := []struct {
		maxVariants int
		wantLen     int
	}{
		{1, 1},
		{2, 2},
		{10, 2},
	}

	for _, tc := range testCases {
		results, err := s.Split([]string{"hijackis"}, tc.maxVariants)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if results.Len() != tc.wantLen {
			t.Errorf("maxVariants=%d: Len() = %d, want %d", tc.maxVariants, results.Len(), tc.wantLen)
		}
	}

	// The sentinel counts against the cap.
	results, err := newSplitter(t, hijackStore()).Split([]string{"hi", "jack"}, 1)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if got := drain(results); !reflect.DeepEqual(got, []Segmentation{{"hijack"}}) {
		t.Errorf("capped stream = %v, want [[hijack]]", got)
	}
}

func TestSplitInputRank(t *testing.T) {
	testCases := []struct {
		description string
		store       ngram.Store
		words       []string
		maxVariants int
		want        int
	}{
		{"input beats the merge it precedes", hijackStore(), []string{"hi", "jack"}, 10, 0},
		{"split beats the input", hijackStore(), []string{"hijack"}, 10, 1},
		{"input never ranks", trigramStore(), []string{"hijackis"}, 10, -1},
		{"sentinel cut by the cap", hijackStore(), []string{"hi", "jack"}, 1, -1},
		{"nothing found", hijackStore(), []string{"a"}, 3, 0},
	}

	for _, tc := range testCases {
		s := newSplitter(t, tc.store, WithCache(4))
		for i := 0; i < 2; i++ {
			results, err := s.Split(tc.words, tc.maxVariants)
			if err != nil {
				t.Fatalf("%s: Split failed: %v", tc.description, err)
			}
			if got := results.InputRank(); got != tc.want {
				t.Errorf("%s: call %d InputRank() = %d, want %d", tc.description, i, got, tc.want)
			}
			if results.FellBack() != (tc.want >= 0) {
				t.Errorf("%s: FellBack() = %v with InputRank %d", tc.description, results.FellBack(), tc.want)
			}
		}
	}
}

func TestSplitLongNumber(t *testing.T) {
	for _, name := range allDecoders {
		s := newSplitter(t, hijackStore(), WithDecoder(name))
		results, err := s.Split([]string{"4", strings.Repeat("7", 30)}, 5)
		if err != nil {
			t.Fatalf("%s: Split failed: %v", name, err)
		}
		if got := drain(results); !reflect.DeepEqual(got, []Segmentation{{}}) {
			t.Errorf("%s: stream = %v, want only the sentinel", name, got)
		}
	}
}

func TestSplitSingleRune(t *testing.T) {
	for _, name := range allDecoders {
		s := newSplitter(t, hijackStore(), WithDecoder(name))
		results, err := s.Split([]string{"a"}, 3)
		if err != nil {
			t.Fatalf("%s: Split failed: %v", name, err)
		}
		if seg, ok := results.Next(); ok || len(seg) != 0 {
			t.Errorf("%s: first read = %v, %v, want the sentinel", name, seg, ok)
		}
		if !results.FellBack() {
			t.Errorf("%s: FellBack() = false, want true", name)
		}
	}
}

func TestSplitDigitConstraints(t *testing.T) {
	store := ngram.FromEntries([]ngram.Entry{
		{Key: "420015", Freq: 1000},
		{Key: "42", Freq: 1000},
		{Key: "00", Freq: 1000},
		{Key: "4200", Freq: 2},
		{Key: "15", Freq: 2},
	})

	for _, name := range allDecoders {
		s := newSplitter(t, store, WithDecoder(name))
		for _, words := range [][]string{{"4200", "15"}, {"4200"}} {
			results, err := s.Split(words, 5)
			if err != nil {
				t.Fatalf("%s: Split failed: %v", name, err)
			}
			for _, seg := range results.Collect() {
				for _, w := range seg {
					if w == "420015" || w == "42" || w == "00" {
						t.Errorf("%s: Split(%q) emitted %v", name, words, seg)
					}
				}
			}
		}
	}
}

func TestSplitProperties(t *testing.T) {
	inputs := [][]string{
		{"hijack"},
		{"hi", "jack"},
		{"HiJack"},
		{"hijackis"},
		{"hi", "jackis"},
		{"xhijack"},
		{"hijack", "hijack"},
		{"is", "hi", "jack", "hijack"},
	}

	for _, name := range allDecoders {
		s := newSplitter(t, trigramStore(), WithDecoder(name))
		for _, words := range inputs {
			first, err := s.Split(words, 10)
			if err != nil {
				t.Fatalf("%s: Split(%q) failed: %v", name, words, err)
			}
			ranked := first.Ranked()

			seen := map[string]bool{}
			for i, r := range ranked {
				if got := strings.Join(r.Words, ""); got != strings.Join(words, "") {
					t.Errorf("%s: %q result %v does not rebuild the input", name, words, r.Words)
				}
				if reflect.DeepEqual([]string(r.Words), words) {
					t.Errorf("%s: %q result %d is the input", name, words, i)
				}
				key := strings.Join(r.Words, " ")
				if seen[key] {
					t.Errorf("%s: %q result %v repeated", name, words, r.Words)
				}
				seen[key] = true
				if i > 0 && ranked[i-1].Weight > r.Weight {
					t.Errorf("%s: %q results out of order", name, words)
				}
			}

			again, err := s.Split(words, 10)
			if err != nil {
				t.Fatalf("%s: Split(%q) failed: %v", name, words, err)
			}
			if got := again.Ranked(); !reflect.DeepEqual(got, ranked) {
				t.Errorf("%s: Split(%q) not deterministic: %v then %v", name, words, ranked, got)
			}
		}
	}
}

func TestSplitInvalidArgument(t *testing.T) {
	s := newSplitter(t, hijackStore())

	testCases := []struct {
		description string
		words       []string
		maxVariants int
	}{
		{"zero variants", []string{"hijack"}, 0},
		{"negative variants", []string{"hijack"}, -1},
		{"empty token", []string{"hi", ""}, 3},
		{"token with space", []string{"hi jack"}, 3},
		{"token with tab", []string{"hi\tjack"}, 3},
	}

	for _, tc := range testCases {
		results, err := s.Split(tc.words, tc.maxVariants)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: error = %v, want ErrInvalidArgument", tc.description, err)
		}
		if results != nil {
			t.Errorf("%s: got results with an error", tc.description)
		}
	}

	if got := s.Stats().Rejected; got != uint64(len(testCases)) {
		t.Errorf("Stats().Rejected = %d, want %d", got, len(testCases))
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s := newSplitter(t, hijackStore())
	results, err := s.Split(nil, 3)
	if err != nil {
		t.Fatalf("Split(nil) failed: %v", err)
	}
	if results.Len() != 0 || results.FellBack() {
		t.Errorf("Split(nil) = %d items, fell back %v, want an empty stream", results.Len(), results.FellBack())
	}
	if seg, ok := results.Next(); ok || len(seg) != 0 {
		t.Errorf("Next() = %v, %v, want empty, false", seg, ok)
	}
}

func TestNewErrors(t *testing.T) {
	bad := DefaultParams()
	bad.MaxWordLength = 0

	testCases := []struct {
		description string
		store       ngram.Store
		opts        []Option
		want        error
	}{
		{"nil store", nil, nil, ErrModelUnavailable},
		{"empty store", ngram.NewTrie(), nil, ErrModelUnavailable},
		{"bad params", hijackStore(), []Option{WithParams(bad)}, ErrInvalidArgument},
		{"unknown decoder", hijackStore(), []Option{WithDecoder("beam")}, ErrInvalidArgument},
		{"negative cache", hijackStore(), []Option{WithCache(-1)}, ErrInvalidArgument},
	}

	for _, tc := range testCases {
		_, err := New(tc.store, tc.opts...)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.description, err, tc.want)
		}
	}
}

type orderStore struct {
	*ngram.Trie
	order int
}

func (s orderStore) Order() int { return s.order }

func TestNewUnsupportedOrder(t *testing.T) {
	for _, order := range []int{1, 4} {
		_, err := New(orderStore{Trie: hijackStore(), order: order})
		if !errors.Is(err, ErrModelUnavailable) {
			t.Errorf("order %d: error = %v, want ErrModelUnavailable", order, err)
		}
	}
}

func TestSplitCache(t *testing.T) {
	s := newSplitter(t, hijackStore(), WithCache(8))

	for i := 0; i < 3; i++ {
		results, err := s.Split([]string{"hijack"}, 2)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if got := drain(results); !reflect.DeepEqual(got, []Segmentation{{"hi", "jack"}, {}}) {
			t.Errorf("call %d: %v", i, got)
		}
	}
	if _, err := s.Split([]string{"hijack"}, 1); err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	want := Stats{Requests: 4, CacheHits: 2, CacheMisses: 2}
	if got := s.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

type brokenDecoder struct{}

func (brokenDecoder) Name() string { return "broken" }

func (brokenDecoder) Decode(q *Query) []Segmentation {
	return []Segmentation{{"hi", "jak"}, {"hi", "", "jack"}, {}}
}

func TestRankDropsMalformed(t *testing.T) {
	s := newSplitter(t, hijackStore())
	s.decoder = brokenDecoder{}

	results, err := s.Split([]string{"hijack"}, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if got := drain(results); !reflect.DeepEqual(got, []Segmentation{{}}) {
		t.Errorf("stream = %v, want only the sentinel", got)
	}
	if got := s.Stats().Malformed; got != 3 {
		t.Errorf("Stats().Malformed = %d, want 3", got)
	}
}
