package bloom

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is the sentinel wrapped by every ParameterError,
// for callers that only care about the error class via errors.Is.
var ErrInvalidParameter = errors.New("bloom: invalid parameter")

// ErrInvalidState is the sentinel wrapped by every StateError.
var ErrInvalidState = errors.New("bloom: invalid state")

// ParameterError reports an invalid construction argument: non-positive
// capacity or decay_time, an error rate outside (0,1), a growth_factor
// that wouldn't grow, or a fill/tightening ratio outside its valid range.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("bloom: invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }

// StateError reports Start()/Stop() being called out of turn.
type StateError struct {
	Op  string
	Msg string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("bloom: %s: %s", e.Op, e.Msg)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }
