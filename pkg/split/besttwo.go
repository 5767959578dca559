package split

import "math"

// bestTwo keeps the two smallest weights pushed for one end position and the
// length of the last word that produced each. A length of -1 means not found.
type bestTwo struct {
	Best          float64
	SecondBest    float64
	ArgBest       int
	ArgSecondBest int
}

func newBestTwo() bestTwo {
	return bestTwo{
		Best:          math.Inf(1),
		SecondBest:    math.Inf(1),
		ArgBest:       -1,
		ArgSecondBest: -1,
	}
}

// Push offers a weight. Equal weights never displace an earlier push.
func (b *bestTwo) Push(weight float64, length int) {
	if b.ArgBest < 0 || weight < b.Best {
		b.SecondBest, b.ArgSecondBest = b.Best, b.ArgBest
		b.Best, b.ArgBest = weight, length
		return
	}
	if b.ArgSecondBest < 0 || weight < b.SecondBest {
		b.SecondBest, b.ArgSecondBest = weight, length
	}
}

// Found reports whether anything was pushed.
func (b *bestTwo) Found() bool {
	return b.ArgBest >= 0
}
