// Package graph edits and queries the dependency graph between cards.
//
// Edges point from a prerequisite to the card that depends on it. Cycles,
// including self edges, are accepted: a reviewer may legitimately build
// circular prerequisites. The dependents view is derived by the store from
// the dependency edges and is never written directly.
package graph

import (
	"fmt"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// Store is the part of the store contract the editor needs.
type Store interface {
	types.CardStore
	types.DependencyStore
}

// Editor adds and queries dependency edges.
type Editor struct {
	store Store
}

// New returns an Editor over store.
func New(store Store) *Editor {
	return &Editor{store: store}
}

// AddEdge records that to depends on from. Both cards must exist. Adding an
// existing edge has no further effect.
func (e *Editor) AddEdge(from, to types.CardID) error {
	if from == types.NoCard || to == types.NoCard {
		return types.ErrInvalidID
	}
	for _, id := range []types.CardID{from, to} {
		ok, err := e.store.Exists(id)
		if err != nil {
			return fmt.Errorf("checking card %s: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("card %s: %w", id, types.ErrNotFound)
		}
	}
	if err := e.store.AddDependency(from, to); err != nil {
		return fmt.Errorf("adding dependency %s -> %s: %w", from, to, err)
	}
	return nil
}

// DependenciesOf returns the cards id depends on.
func (e *Editor) DependenciesOf(id types.CardID) ([]types.CardID, error) {
	deps, err := e.store.DependenciesOf(id)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies of %s: %w", id, err)
	}
	return deps, nil
}

// DependentsOf returns the cards that depend on id, from the store's cached
// reverse index.
func (e *Editor) DependentsOf(id types.CardID) ([]types.CardID, error) {
	deps, err := e.store.CachedDependentsOf(id)
	if err != nil {
		return nil, fmt.Errorf("listing dependents of %s: %w", id, err)
	}
	return deps, nil
}

// InstanceDependencies returns the dependencies of id that are Instance
// cards, in dependency order.
func (e *Editor) InstanceDependencies(id types.CardID) ([]*types.Card, error) {
	deps, err := e.DependenciesOf(id)
	if err != nil {
		return nil, err
	}
	var out []*types.Card
	for _, dep := range deps {
		c, err := e.store.Load(dep)
		if err != nil {
			return nil, fmt.Errorf("loading dependency %s: %w", dep, err)
		}
		if c.Kind() == types.KindInstance {
			out = append(out, c)
		}
	}
	return out, nil
}
