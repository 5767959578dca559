package split

import (
	"errors"
	"fmt"

	"github.com/bastiangx/wordsplit/pkg/ngram"
)

var (
	// ErrInvalidArgument is returned for malformed requests. Nothing is
	// computed when it is returned.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrModelUnavailable is returned when the n-gram store cannot serve
	// requests.
	ErrModelUnavailable = ngram.ErrModelUnavailable
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
