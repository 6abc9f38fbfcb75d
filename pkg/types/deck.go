package types

import "errors"

// Deck is a Store with a lifecycle. Callers attach to a backend, use the
// store, and detach when done.
type Deck interface {
	Store

	// Attach connects the Deck to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// Backends holding external resources return ErrDetached from store
	// operations after Detach.
	Detach() error
}

// Deck lifecycle errors.
var (
	ErrDetached        = errors.New("deck is detached")
	ErrAlreadyAttached = errors.New("deck is already attached")
)
