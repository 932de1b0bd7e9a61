package ckkswrapper

import (
	"errors"
	"fmt"
)

// Failure causes shared by every layer of the training stack. Callers test
// for them with errors.Is; call sites wrap them with context.
var (
	// ErrInsufficientDepth means an operation needs more remaining levels
	// than the ciphertext has. It is prevented by budgeting depth up front.
	ErrInsufficientDepth = errors.New("insufficient depth")
	// ErrScaleMismatch and ErrLevelMismatch flag a bug in the caller: the
	// alignment and snapping rules make them unreachable in correct code.
	ErrScaleMismatch = errors.New("scale mismatch")
	ErrLevelMismatch = errors.New("level mismatch")
	// ErrInvalidDegree is a configuration error on the polynomial surrogate.
	ErrInvalidDegree = errors.New("invalid degree")
	// ErrDimensionMismatch is a data validation error raised before encryption.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// DepthError reports which operation ran out of levels.
type DepthError struct {
	Op   string
	Need int
	Have int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("%s: %s needs %d level(s), have %d", ErrInsufficientDepth, e.Op, e.Need, e.Have)
}

func (e *DepthError) Unwrap() error {
	return ErrInsufficientDepth
}
