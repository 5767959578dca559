package split

import (
	"fmt"
	"strings"

	"github.com/bastiangx/wordsplit/pkg/ngram"
)

// Query is everything a decoder needs for one request.
type Query struct {
	Words  []string
	Model  *Model
	Breaks *Breaks
}

// NewQuery builds the model and break vectors for words.
func NewQuery(store ngram.Store, words []string, params Params) *Query {
	return &Query{
		Words:  words,
		Model:  NewModel(store, words, params),
		Breaks: NewBreaks(words),
	}
}

// Decoder produces candidate segmentations for a query. Candidates need not
// be ordered or unique; the Splitter ranks and filters them.
// Implementations must be safe for concurrent use.
type Decoder interface {
	Name() string
	Decode(q *Query) []Segmentation
}

// Decoder names accepted by DecoderByName.
const (
	DecoderAuto        = "auto"
	DecoderViterbi2    = "viterbi2"
	DecoderViterbi3    = "viterbi3"
	DecoderPropagation = "propagation"
)

// DecoderByName returns the decoder registered under name. "auto" picks the
// Viterbi variant matching the model order.
func DecoderByName(name string, order int) (Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DecoderAuto:
		if order >= 3 {
			return NewViterbi3(), nil
		}
		return NewViterbi2(), nil
	case DecoderViterbi2:
		return NewViterbi2(), nil
	case DecoderViterbi3:
		return NewViterbi3(), nil
	case DecoderPropagation:
		return NewPropagation(), nil
	default:
		return nil, fmt.Errorf("%w: unknown decoder %q", ErrInvalidArgument, name)
	}
}
