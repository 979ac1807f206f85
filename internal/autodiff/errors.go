package autodiff

import "errors"

// Common errors.
var (
	// ErrTapeConflict is returned when two operands of one operation both
	// own a tape, or when a tape is attached to a tensor that already owns one.
	ErrTapeConflict = errors.New("both operands own a tape")

	// ErrTapeConsumed is returned when a tape is used after Backward replayed it.
	ErrTapeConsumed = errors.New("tape already consumed by backward")

	// ErrNoTape is returned by Backward when the terminal tensor owns no tape.
	ErrNoTape = errors.New("tensor owns no tape")

	// ErrNotScalar is returned by Backward when the terminal tensor is not rank 0.
	ErrNotScalar = errors.New("backward requires a rank-0 tensor")
)
