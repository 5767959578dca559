package split

import (
	"math"
	"unicode/utf8"

	"github.com/bastiangx/wordsplit/internal/utils"
	"github.com/bastiangx/wordsplit/pkg/ngram"
)

// Model prices substrings of one request's joined text.
//
// Positions are rune offsets into the joined text and substrings are
// inclusive ranges [s, e]. Unigram frequencies and cursors for every start
// and every length up to MaxWordLength are looked up once, when the model is
// built: one floor seek per start finds the longest dictionary prefix, and
// only prefixes up to that length are queried. Everything else in the cache
// stays zero, which means out of vocabulary.
//
// A Model belongs to a single request and is not safe for concurrent use.
type Model struct {
	store   ngram.Store
	params  Params
	text    []rune // as typed
	key     []rune // lower cased, same length as text
	n       int
	width   int // cache row width, Params.MaxWordLength
	maxFreq float64
	order   int

	freqs     []uint32
	cursors   []ngram.Cursor
	prefixLen []int // longest dictionary prefix per start, capped at n-start

	numeric   []int // numeric[pos]: number runes in text[0..pos]
	wordIndex []int // wordIndex[pos]: index of the input token owning pos
}

// NewModel builds the request-scoped model for words.
func NewModel(store ngram.Store, words []string, params Params) *Model {
	var text []rune
	wordIndex := make([]int, 0, len(words)*4)
	for i, w := range words {
		for _, r := range w {
			text = append(text, r)
			wordIndex = append(wordIndex, i)
		}
	}

	n := len(text)
	m := &Model{
		store:     store,
		params:    params,
		text:      text,
		key:       utils.LowerRunes(text),
		n:         n,
		width:     params.MaxWordLength,
		maxFreq:   float64(store.MaxFreq()),
		order:     store.Order(),
		freqs:     make([]uint32, n*params.MaxWordLength),
		cursors:   make([]ngram.Cursor, n*params.MaxWordLength),
		prefixLen: make([]int, n),
		numeric:   make([]int, n),
		wordIndex: wordIndex,
	}
	m.cacheUnigrams()

	count := 0
	for pos, r := range text {
		if utils.IsNumberRune(r) {
			count++
		}
		m.numeric[pos] = count
	}
	return m
}

func (m *Model) cacheUnigrams() {
	for start := 0; start < m.n; start++ {
		suffix := string(m.key[start:])
		found := m.store.SeekFloor(suffix)
		l := min(utils.CommonPrefixLen(suffix, found), m.n-start)
		m.prefixLen[start] = l

		for length := 1; length <= min(l, m.width); length++ {
			i := m.slot(start, length)
			m.freqs[i], m.cursors[i] = m.store.Freq(string(m.key[start : start+length]))
		}
	}
}

func (m *Model) slot(start, length int) int {
	return start*m.width + length - 1
}

// N returns the length of the joined text in runes.
func (m *Model) N() int { return m.n }

// Order returns the order of the underlying store.
func (m *Model) Order() int { return m.order }

// MaxFreq returns the largest unigram frequency of the store.
func (m *Model) MaxFreq() float64 { return m.maxFreq }

// Params returns the parameters the model was built with.
func (m *Model) Params() Params { return m.params }

// WordAt returns text[s..e] as typed.
func (m *Model) WordAt(s, e int) string {
	return string(m.text[s : e+1])
}

// keyAt returns the lower cased text[s..e] for store lookups.
func (m *Model) keyAt(s, e int) string {
	return string(m.key[s : e+1])
}

// Text returns the joined input as typed.
func (m *Model) Text() string {
	return string(m.text)
}

// isOOV reports whether [s, e] is too long or unknown.
func (m *Model) isOOV(s, e int) bool {
	length := e - s + 1
	return length > m.width || m.freqs[m.slot(s, length)] == 0
}

func (m *Model) cachedFreq(s, e int) uint32 {
	return m.freqs[m.slot(s, e-s+1)]
}

func (m *Model) cachedCursor(s, e int) ngram.Cursor {
	return m.cursors[m.slot(s, e-s+1)]
}

// Lookup returns the frequency and cursor of [s, e], from the cache when
// the length allows it.
func (m *Model) Lookup(s, e int) (uint32, ngram.Cursor) {
	if e-s+1 <= m.width {
		return m.cachedFreq(s, e), m.cachedCursor(s, e)
	}
	return m.store.Freq(m.keyAt(s, e))
}

// FreqAfter returns the frequency of the n-gram made of the cursor's key and [s, e].
func (m *Model) FreqAfter(c ngram.Cursor, s, e int) uint32 {
	if s > e {
		return 0
	}
	return m.store.FreqAfter(c, m.keyAt(s, e))
}

// PrefixLen returns the length of the longest dictionary key prefix of text[start:].
func (m *Model) PrefixLen(start int) int {
	return m.prefixLen[start]
}

// WordWeight is the unigram cost of [s, e].
func (m *Model) WordWeight(s, e int) float64 {
	if m.isOOV(s, e) {
		return m.oovWeight(s, e)
	}
	return math.Log2(m.maxFreq / float64(m.cachedFreq(s, e)))
}

// CondWeight2 is the cost of [s2, e2] following [s1, s2-1].
func (m *Model) CondWeight2(s1, s2, e2 int) float64 {
	backoff := m.params.OOVWeight
	if m.params.NGramBackoff {
		backoff = m.params.BigramToUnigramBackoff + m.WordWeight(s2, e2)
	}

	if m.isOOV(s1, s2-1) || m.isOOV(s2, e2) {
		return backoff
	}
	cursor := m.cachedCursor(s1, s2-1)
	if !cursor.Valid() {
		return backoff
	}
	bigram := m.store.FreqAfter(cursor, m.keyAt(s2, e2))
	if bigram == 0 {
		return backoff
	}
	return math.Log2(float64(m.cachedFreq(s1, s2-1)) / float64(bigram))
}

// CondWeight3 is the cost of [s3, e3] following [s1, s2-1] and [s2, s3-1].
func (m *Model) CondWeight3(s1, s2, s3, e3 int) float64 {
	backoff := m.params.OOVWeight
	if m.params.NGramBackoff {
		backoff = m.params.TrigramToBigramBackoff + m.CondWeight2(s2, s3, e3)
	}

	if m.order < 3 || m.isOOV(s1, s2-1) || m.isOOV(s2, s3-1) || m.isOOV(s3, e3) {
		return backoff
	}
	cursor := m.cachedCursor(s1, s2-1)
	if !cursor.Valid() {
		return backoff
	}
	second := m.keyAt(s2, s3-1)
	bigram := m.store.FreqAfter(cursor, second)
	if bigram == 0 {
		return backoff
	}
	trigram := m.store.FreqAfter(cursor, second+ngram.Separator+m.keyAt(s3, e3))
	if trigram == 0 {
		return backoff
	}
	return math.Log2(float64(bigram) / float64(trigram))
}

// oovWeight is the cheapest of the flat OOV cost, the number backoff and the
// query word backoff.
func (m *Model) oovWeight(s, e int) float64 {
	result := m.params.OOVWeight
	length := e - s + 1
	if m.params.NumberBackoff && length >= m.params.MinNumberLength && m.isNumber(s, e) {
		result = min(result, m.params.NumberToLengthBackoff+math.Log2(10)*float64(length))
	}
	if m.params.QueryWordBackoff && m.isQueryWord(s, e) {
		result = min(result, m.params.OOVQueryWordWeight)
	}
	return result
}

// isNumber reports whether [s, e] is digits with optional interior separators.
func (m *Model) isNumber(s, e int) bool {
	return m.numeric[e]-m.numeric[s] == e-s &&
		utils.IsDigit(m.text[s]) &&
		utils.IsDigit(m.text[e])
}

// isQueryWord reports whether [s, e] is exactly one input token.
func (m *Model) isQueryWord(s, e int) bool {
	wi := m.wordIndex
	return wi[s] == wi[e] &&
		(s == 0 || wi[s-1] != wi[s]) &&
		(e == m.n-1 || wi[e+1] != wi[e])
}

// spans converts a segmentation to start offsets. ok is false when the words
// do not cover the joined text exactly.
func (m *Model) spans(seg Segmentation) (starts []int, ok bool) {
	starts = make([]int, len(seg)+1)
	pos := 0
	for i, w := range seg {
		starts[i] = pos
		pos += utf8.RuneCountInString(w)
	}
	starts[len(seg)] = pos
	return starts, len(seg) > 0 && pos == m.n
}

// PhraseWeight2 scores seg with bigram costs.
// It returns +Inf when seg does not cover the joined text.
func (m *Model) PhraseWeight2(seg Segmentation) float64 {
	starts, ok := m.spans(seg)
	if !ok {
		return math.Inf(1)
	}
	result := m.WordWeight(0, starts[1]-1)
	for i := 1; i < len(seg); i++ {
		result += m.CondWeight2(starts[i-1], starts[i], starts[i+1]-1)
	}
	return result
}

// PhraseWeight3 scores seg with trigram costs, or bigram costs when the
// store has no trigrams.
func (m *Model) PhraseWeight3(seg Segmentation) float64 {
	if m.order < 3 {
		return m.PhraseWeight2(seg)
	}
	starts, ok := m.spans(seg)
	if !ok {
		return math.Inf(1)
	}
	if len(seg) == 1 {
		return m.WordWeight(0, m.n-1)
	}
	result := m.WordWeight(0, starts[1]-1) + m.CondWeight2(0, starts[1], starts[2]-1)
	for i := 2; i < len(seg); i++ {
		result += m.CondWeight3(starts[i-2], starts[i-1], starts[i], starts[i+1]-1)
	}
	return result
}
