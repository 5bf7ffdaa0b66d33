package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAborted is returned when the operator declines a retry.
	ErrAborted = errors.New("aborted by operator")
	// ErrCycle marks a hierarchy path that revisits a product.
	ErrCycle = errors.New("cyclic hierarchy reference")
)
