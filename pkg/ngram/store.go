/*
Package ngram holds the n-gram frequency store used by the word breaker.

Keys are words joined by a single ASCII space: "hi" is a unigram, "hi jack" a
bigram and "hi jack is" a trigram. Every key carries an occurrence count.

Lookups return a Cursor next to the frequency. A valid cursor means that at
least one longer n-gram continues the key, and it can be handed back to
FreqAfter to fetch the frequency of such a continuation without building the
joined key at the call site.

The Trie implementation keeps keys in a patricia trie for exact lookups and
continuation checks, plus a sorted key index for floor seeks. It is safe for
concurrent readers.
*/
package ngram

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"
)

// ErrModelUnavailable is returned when a store is missing, empty or malformed.
var ErrModelUnavailable = errors.New("ngram model unavailable")

// Separator joins the words of a multi-word key.
const Separator = " "

// Cursor is the continuation hint returned by Freq.
// The zero value means no longer n-gram starts with the looked up key.
type Cursor struct {
	prefix string
}

// Valid reports whether some n-gram continues the key this cursor came from.
func (c Cursor) Valid() bool {
	return c.prefix != ""
}

// Store is the read-only view of an n-gram model.
type Store interface {
	// Freq returns the frequency of key and a cursor for its continuations.
	Freq(key string) (uint32, Cursor)
	// FreqAfter returns the frequency of the n-gram formed by the cursor's key
	// followed by continuation. The continuation may hold several words.
	FreqAfter(c Cursor, continuation string) uint32
	// SeekFloor returns the largest key that is <= key, or "" if there is none.
	SeekFloor(key string) string
	// MaxFreq returns the largest unigram frequency.
	MaxFreq() uint64
	// Order returns 2 for bigram models and 3 for trigram models.
	Order() int
}

// Entry is a single key and its frequency.
type Entry struct {
	Key  string
	Freq uint32
}

// Trie is a Store backed by a patricia trie.
type Trie struct {
	trie    *patricia.Trie
	keys    []string // sorted, used by SeekFloor
	maxFreq uint64
	order   int
	mu      sync.RWMutex
}

// NewTrie creates an empty store.
func NewTrie() *Trie {
	return &Trie{
		trie:  patricia.NewTrie(),
		order: 2,
	}
}

// FromEntries builds a store from entries. Later duplicates override earlier ones.
func FromEntries(entries []Entry) *Trie {
	t := NewTrie()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		if t.trie.Get(patricia.Prefix(e.Key)) == nil {
			keys = append(keys, e.Key)
		}
		t.trie.Set(patricia.Prefix(e.Key), e.Freq)
		t.track(e.Key, e.Freq)
	}
	sort.Strings(keys)
	t.keys = keys
	return t
}

// Add inserts or replaces a single key.
func (t *Trie) Add(key string, freq uint32) {
	if key == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.trie.Insert(patricia.Prefix(key), freq) {
		i := sort.SearchStrings(t.keys, key)
		t.keys = append(t.keys, "")
		copy(t.keys[i+1:], t.keys[i:])
		t.keys[i] = key
	} else {
		t.trie.Set(patricia.Prefix(key), freq)
	}
	t.track(key, freq)
}

// track updates max frequency and order for a newly stored key.
func (t *Trie) track(key string, freq uint32) {
	switch strings.Count(key, Separator) {
	case 0:
		if uint64(freq) > t.maxFreq {
			t.maxFreq = uint64(freq)
		}
	case 1:
	default:
		t.order = 3
	}
}

// Freq implements Store.
func (t *Trie) Freq(key string) (uint32, Cursor) {
	if key == "" {
		return 0, Cursor{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	freq := itemFreq(t.trie.Get(patricia.Prefix(key)))
	next := key + Separator
	if t.trie.MatchSubtree(patricia.Prefix(next)) {
		return freq, Cursor{prefix: next}
	}
	return freq, Cursor{}
}

// FreqAfter implements Store.
func (t *Trie) FreqAfter(c Cursor, continuation string) uint32 {
	if !c.Valid() || continuation == "" {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return itemFreq(t.trie.Get(patricia.Prefix(c.prefix + continuation)))
}

// SeekFloor implements Store.
func (t *Trie) SeekFloor(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i := sort.SearchStrings(t.keys, key)
	if i < len(t.keys) && t.keys[i] == key {
		return key
	}
	if i == 0 {
		return ""
	}
	return t.keys[i-1]
}

// MaxFreq implements Store.
func (t *Trie) MaxFreq() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.maxFreq
}

// Order implements Store.
func (t *Trie) Order() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.order
}

// Len returns the number of stored keys.
func (t *Trie) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}

func itemFreq(item patricia.Item) uint32 {
	switch v := item.(type) {
	case uint32:
		return v
	case int:
		return uint32(v)
	default:
		return 0
	}
}
