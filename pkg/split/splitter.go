// Package split breaks runs of text into dictionary words.
//
// A Splitter owns a read-only n-gram store and a decoder. Every Split call
// builds its own Model and Breaks, so one Splitter serves concurrent callers.
package split

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bastiangx/wordsplit/internal/utils"
	"github.com/bastiangx/wordsplit/pkg/ngram"
)

// Splitter ranks the segmentations a decoder finds for a token sequence.
type Splitter struct {
	store       ngram.Store
	params      Params
	decoderName string
	decoder     Decoder
	cache       *lru.Cache[string, ranking]

	requests  atomic.Uint64
	hits      atomic.Uint64
	misses    atomic.Uint64
	rejected  atomic.Uint64
	malformed atomic.Uint64
}

// Stats are running counters of a Splitter.
type Stats struct {
	Requests    uint64
	CacheHits   uint64
	CacheMisses uint64
	Rejected    uint64 // requests failing validation
	Malformed   uint64 // decoder candidates dropped by the round-trip check
}

// Option configures a Splitter.
type Option func(*options)

type options struct {
	params    Params
	decoder   string
	cacheSize int
}

// WithParams replaces DefaultParams.
func WithParams(p Params) Option {
	return func(o *options) { o.params = p }
}

// WithDecoder selects a decoder by name, see DecoderByName.
func WithDecoder(name string) Option {
	return func(o *options) { o.decoder = name }
}

// WithCache keeps the last size answers. Zero disables the cache.
func WithCache(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

// New creates a Splitter over store.
func New(store ngram.Store, opts ...Option) (*Splitter, error) {
	o := options{params: DefaultParams(), decoder: DecoderAuto}
	for _, opt := range opts {
		opt(&o)
	}

	if store == nil {
		return nil, fmt.Errorf("%w: no store", ErrModelUnavailable)
	}
	if store.MaxFreq() == 0 {
		return nil, fmt.Errorf("%w: store has no unigrams", ErrModelUnavailable)
	}
	if order := store.Order(); order != 2 && order != 3 {
		return nil, fmt.Errorf("%w: unsupported model order %d", ErrModelUnavailable, order)
	}
	if err := o.params.validate(); err != nil {
		return nil, err
	}

	dec, err := DecoderByName(o.decoder, store.Order())
	if err != nil {
		return nil, err
	}

	s := &Splitter{
		store:       store,
		params:      o.params,
		decoderName: dec.Name(),
		decoder:     dec,
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, ranking](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		s.cache = cache
	} else if o.cacheSize < 0 {
		return nil, invalidf("cache size must not be negative, got %d", o.cacheSize)
	}

	log.Debugf("Splitter ready: decoder=%s order=%d max_freq=%d cache=%d",
		s.decoderName, store.Order(), store.MaxFreq(), o.cacheSize)
	return s, nil
}

// Split returns at most maxVariants ranked segmentations of words, the
// fallback sentinel included. An empty words yields an empty stream.
func (s *Splitter) Split(words []string, maxVariants int) (*Results, error) {
	s.requests.Add(1)
	if err := validate(words, maxVariants); err != nil {
		s.rejected.Add(1)
		return nil, err
	}
	if len(words) == 0 {
		return newResults(nil, -1), nil
	}

	var key string
	if s.cache != nil {
		key = cacheKey(words, maxVariants)
		if rk, ok := s.cache.Get(key); ok {
			s.hits.Add(1)
			return newResults(rk.items, rk.inputAt), nil
		}
		s.misses.Add(1)
	}

	rk := s.rank(NewQuery(s.store, words, s.params), maxVariants)
	if s.cache != nil {
		s.cache.Add(key, rk)
	}
	return newResults(rk.items, rk.inputAt), nil
}

// ranking is the outcome of rank. inputAt is the number of items that beat
// the input as typed, or -1 when the sentinel is not in items.
type ranking struct {
	items   []Ranked
	inputAt int
}

func validate(words []string, maxVariants int) error {
	if maxVariants <= 0 {
		return invalidf("max variants must be positive, got %d", maxVariants)
	}
	for i, w := range words {
		if !utils.IsValidToken(w) {
			return invalidf("token %d is empty or contains whitespace: %q", i, w)
		}
	}
	return nil
}

// rank turns decoder candidates into the result stream: candidates that do
// not rebuild the input are dropped, the rest are sorted by trigram weight,
// cut at SecondBestHandicap from the best, deduplicated and stripped of the
// input sequence. The sentinel closes the stream when the input was a
// candidate or nothing is left, and the input's place among the kept
// candidates is reported separately.
func (s *Splitter) rank(q *Query, maxVariants int) ranking {
	text := q.Model.Text()
	var cands []Ranked
	for _, seg := range s.decoder.Decode(q) {
		if err := checkRoundTrip(seg, text); err != nil {
			s.malformed.Add(1)
			log.Warnf("Dropping %s candidate for %q: %v", s.decoderName, text, err)
			continue
		}
		cands = append(cands, Ranked{Words: seg, Weight: q.Model.PhraseWeight3(seg)})
	}
	slices.SortStableFunc(cands, func(a, b Ranked) int {
		switch {
		case a.Weight < b.Weight:
			return -1
		case a.Weight > b.Weight:
			return 1
		}
		return 0
	})

	filter := utils.NewVariantFilter(q.Words)
	limit := math.Inf(1)
	if len(cands) > 0 {
		limit = cands[0].Weight + s.params.SecondBestHandicap
	}

	var out []Ranked
	inputAt := -1
	for _, c := range cands {
		if c.Weight > limit {
			break
		}
		if filter.IsInput(c.Words) {
			if inputAt < 0 {
				inputAt = len(out)
			}
			continue
		}
		if filter.ShouldInclude(c.Words) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		inputAt = 0
	}
	if inputAt >= 0 {
		out = append(out, Ranked{Words: Segmentation{}, Weight: q.Model.PhraseWeight3(q.Words)})
	}
	if len(out) > maxVariants {
		out = out[:maxVariants]
		if len(out[len(out)-1].Words) != 0 {
			inputAt = -1
		}
	}
	return ranking{items: out, inputAt: inputAt}
}

// Trace decodes words and renders the decoder lattice: the weight per end
// position and last word length, and the two greedy variants read from it.
// Decoders without a lattice give an empty string.
func (s *Splitter) Trace(words []string) (string, error) {
	if err := validate(words, 1); err != nil {
		return "", err
	}
	t, ok := s.decoder.(tracer)
	if !ok || len(words) == 0 {
		return "", nil
	}
	return t.trace(NewQuery(s.store, words, s.params)), nil
}

var errRoundTrip = errors.New("segmentation does not rebuild the input")

func checkRoundTrip(seg Segmentation, text string) error {
	if len(seg) == 0 {
		return fmt.Errorf("%w: no words", errRoundTrip)
	}
	for _, w := range seg {
		if w == "" {
			return fmt.Errorf("%w: empty word", errRoundTrip)
		}
	}
	if joined := strings.Join(seg, ""); joined != text {
		return fmt.Errorf("%w: got %q", errRoundTrip, joined)
	}
	return nil
}

func cacheKey(words []string, maxVariants int) string {
	return strconv.Itoa(maxVariants) + "\x00" + strings.Join(words, " ")
}

// Decoder returns the name of the decoder in use.
func (s *Splitter) Decoder() string { return s.decoderName }

// Params returns the parameters in use.
func (s *Splitter) Params() Params { return s.params }

// Store returns the underlying n-gram store.
func (s *Splitter) Store() ngram.Store { return s.store }

// Stats returns a snapshot of the counters.
func (s *Splitter) Stats() Stats {
	return Stats{
		Requests:    s.requests.Load(),
		CacheHits:   s.hits.Load(),
		CacheMisses: s.misses.Load(),
		Rejected:    s.rejected.Load(),
		Malformed:   s.malformed.Load(),
	}
}
