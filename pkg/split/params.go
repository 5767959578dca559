package split

// Params tunes the weight model and the decoders.
// Weights are negative log2 likelihoods: lower is better.
type Params struct {
	// MaxWordLength bounds the length in runes of a dictionary word.
	MaxWordLength int
	// OOVWeight is the flat cost of an unknown word.
	OOVWeight float64

	// NGramBackoff replaces a missing bigram (trigram) by the unigram (bigram)
	// cost plus the matching backoff constant. Without it a missing n-gram
	// costs OOVWeight.
	NGramBackoff           bool
	BigramToUnigramBackoff float64
	TrigramToBigramBackoff float64

	// NumberBackoff prices an unknown number as NumberToLengthBackoff plus
	// log2(10) per rune, for numbers of at least MinNumberLength runes.
	NumberBackoff         bool
	NumberToLengthBackoff float64
	MinNumberLength       int

	// QueryWordBackoff prices an unknown word that was a whole input token at
	// OOVQueryWordWeight.
	QueryWordBackoff   bool
	OOVQueryWordWeight float64

	// WeightHandicap is added to the weight of the input to get the give-up
	// bound of the Viterbi decoders.
	WeightHandicap float64
	// SecondBestHandicap is the largest gap to the best result a reported
	// variant may have.
	SecondBestHandicap float64

	// PropagationMaxWordLength bounds candidate words of the propagation decoder.
	PropagationMaxWordLength int
	// MinFreqShift and GoodFreqShift derive the propagation frequency
	// thresholds from the model's max frequency.
	MinFreqShift  uint
	GoodFreqShift uint
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		MaxWordLength:            27,
		OOVWeight:                10000,
		NGramBackoff:             true,
		BigramToUnigramBackoff:   0,
		TrigramToBigramBackoff:   0,
		NumberBackoff:            true,
		NumberToLengthBackoff:    10,
		MinNumberLength:          1,
		QueryWordBackoff:         true,
		OOVQueryWordWeight:       500,
		WeightHandicap:           6,
		SecondBestHandicap:       6,
		PropagationMaxWordLength: 25,
		MinFreqShift:             27,
		GoodFreqShift:            15,
	}
}

func (p Params) validate() error {
	if p.MaxWordLength <= 0 {
		return invalidf("max word length must be positive, got %d", p.MaxWordLength)
	}
	if p.PropagationMaxWordLength <= 0 || p.PropagationMaxWordLength > 31 {
		return invalidf("propagation max word length must be in [1, 31], got %d", p.PropagationMaxWordLength)
	}
	if p.MinNumberLength < 1 {
		return invalidf("min number length must be at least 1, got %d", p.MinNumberLength)
	}
	if p.WeightHandicap < 0 || p.SecondBestHandicap < 0 {
		return invalidf("handicaps must not be negative")
	}
	return nil
}
