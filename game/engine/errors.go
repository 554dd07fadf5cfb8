package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedBoard is returned for boards with zero area or ragged rows
	ErrMalformedBoard = errors.New("malformed board")

	// ErrInvalidPrecondition is returned when a caller breaks the generate/apply contract
	ErrInvalidPrecondition = errors.New("invalid precondition")

	// ErrIllegalMove is returned by Apply and Play for moves the generator did not offer
	ErrIllegalMove = fmt.Errorf("%w: move not offered for the active occupant", ErrInvalidPrecondition)

	ErrInvalidLevel    = errors.New("invalid level")
	ErrGameOver        = errors.New("game is over")
	ErrSelectionLocked = errors.New("occupant can only be chosen before the first move")
)
