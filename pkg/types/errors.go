package types

import (
	"errors"
	"fmt"
)

// Reference errors. These are fatal for the current operation and signal a
// stale id or storage inconsistency.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrWrongCardType = errors.New("card has the wrong type")
)

// Interaction errors. These never abort a session: the transition
// controller turns them into a user-visible notice and leaves state unchanged.
var (
	ErrCancelled         = errors.New("cancelled by user")
	ErrInvalidTransition = errors.New("invalid type transition")
	ErrAnswerRejected    = fmt.Errorf("%w: answer not allowed by attribute", ErrInvalidTransition)
)
