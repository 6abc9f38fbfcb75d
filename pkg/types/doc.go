// Package types defines the card model, the store contract consumed by the
// card core, and the standard errors shared by every package in cardtree.
//
// A Card carries an immutable id and category and a mutable CardType payload.
// CardType is a closed sum type: the unexported marker method keeps variants
// inside this package, and golangci-lint's gochecksumtype check makes every
// type switch over it exhaustive.
package types
