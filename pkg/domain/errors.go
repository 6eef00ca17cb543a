package domain

import "errors"

// ErrStateNotFound is returned when a selector key has no persisted state.
var ErrStateNotFound = errors.New("selector state not found")

// ErrInvalidBehavior is returned when a traversal policy name is not recognized.
var ErrInvalidBehavior = errors.New("invalid behavior")

// ErrInvalidRepeat is returned when a batch repeat multiplier is less than 1
// or the product of the multipliers is too large.
var ErrInvalidRepeat = errors.New("invalid repeat multiplier")

// ErrPersistence is returned when a state mutation could not be written to the store.
var ErrPersistence = errors.New("failed to persist selector state")
