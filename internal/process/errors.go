package process

import "errors"

var (
	// ErrUnknownField indicates a field name that is not part of the state.
	ErrUnknownField = errors.New("process: unknown field")

	// ErrReadOnlyField indicates an attempt to edit a derived reading.
	ErrReadOnlyField = errors.New("process: field is derived and cannot be edited")

	// ErrInvalidValue indicates a NaN or infinite edit value.
	ErrInvalidValue = errors.New("process: invalid value (NaN or Inf)")
)
