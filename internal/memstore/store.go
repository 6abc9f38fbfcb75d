// Package memstore implements the card store contract in memory. Cards are
// held in an arena keyed by id; class hierarchy queries never follow live
// pointers between cards.
package memstore

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

var _ types.Deck = (*Store)(nil)

// Store is an in-memory types.Deck. It is not safe for concurrent use; the
// card core is single-threaded by contract.
type Store struct {
	attached bool

	cards      map[types.CardID]*types.Card
	order      []types.CardID
	attributes map[types.AttributeID]*types.Attribute
	attrOrder  []types.AttributeID

	// dependencies is authoritative; dependents is the derived reverse
	// index, updated in the same call as every edge insert.
	dependencies map[types.CardID][]types.CardID
	dependents   map[types.CardID][]types.CardID

	newID func() string
}

// New returns an empty store issuing UUID v7 ids.
func New() *Store {
	return &Store{
		cards:        make(map[types.CardID]*types.Card),
		attributes:   make(map[types.AttributeID]*types.Attribute),
		dependencies: make(map[types.CardID][]types.CardID),
		dependents:   make(map[types.CardID][]types.CardID),
		newID:        newUUID,
	}
}

// Attach validates config and marks the store attached. The data directory
// is ignored; contents live only as long as the Store.
func (s *Store) Attach(config types.Config) error {
	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	s.attached = true
	return nil
}

// Detach marks the store detached. Contents are kept and the store keeps
// serving reads and writes.
func (s *Store) Detach() error {
	s.attached = false
	return nil
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Load returns a copy of the card with the given id.
func (s *Store) Load(id types.CardID) (*types.Card, error) {
	if id == types.NoCard {
		return nil, types.ErrInvalidID
	}
	c, ok := s.cards[id]
	if !ok {
		return nil, fmt.Errorf("card %s: %w", id, types.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// Exists reports whether a card with the given id exists.
func (s *Store) Exists(id types.CardID) (bool, error) {
	_, ok := s.cards[id]
	return ok, nil
}

// AllCards returns copies of every card in creation order.
func (s *Store) AllCards() ([]*types.Card, error) {
	out := make([]*types.Card, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.cards[id]
		out = append(out, &cp)
	}
	return out, nil
}

// AllClasses returns copies of every Class card in creation order.
func (s *Store) AllClasses() ([]*types.Card, error) {
	var out []*types.Card
	for _, id := range s.order {
		c := s.cards[id]
		if c.Kind() != types.KindClass {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// MutateType replaces the payload of an existing card.
func (s *Store) MutateType(id types.CardID, t types.CardType) error {
	if t == nil {
		return types.ErrInvalidData
	}
	c, ok := s.cards[id]
	if !ok {
		return fmt.Errorf("card %s: %w", id, types.ErrNotFound)
	}
	c.Type = t
	return nil
}

// CreateCard stores a new card and returns its id.
func (s *Store) CreateCard(t types.CardType, category string) (types.CardID, error) {
	if t == nil {
		return types.NoCard, types.ErrInvalidData
	}
	id := types.CardID(s.newID())
	s.cards[id] = &types.Card{ID: id, Type: t, Category: category}
	s.order = append(s.order, id)
	return id, nil
}

// CreateAttribute stores a new pattern and returns its id.
func (s *Store) CreateAttribute(pattern string, class, backType types.CardID) (types.AttributeID, error) {
	if pattern == "" || class == types.NoCard {
		return "", types.ErrInvalidData
	}
	id := types.AttributeID(s.newID())
	s.attributes[id] = &types.Attribute{ID: id, Pattern: pattern, Class: class, BackType: backType}
	s.attrOrder = append(s.attrOrder, id)
	return id, nil
}

// LoadAttribute returns a copy of the pattern with the given id.
func (s *Store) LoadAttribute(id types.AttributeID) (*types.Attribute, error) {
	a, ok := s.attributes[id]
	if !ok {
		return nil, fmt.Errorf("attribute %s: %w", id, types.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

// AttributesOfClass returns the patterns declared exactly on class, in
// creation order.
func (s *Store) AttributesOfClass(class types.CardID) ([]*types.Attribute, error) {
	var out []*types.Attribute
	for _, id := range s.attrOrder {
		a := s.attributes[id]
		if a.Class != class {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// AddDependency records that to depends on from. Both cards must exist.
// A repeated edge is ignored.
func (s *Store) AddDependency(from, to types.CardID) error {
	for _, id := range []types.CardID{from, to} {
		if _, ok := s.cards[id]; !ok {
			return fmt.Errorf("card %s: %w", id, types.ErrNotFound)
		}
	}
	if slices.Contains(s.dependencies[to], from) {
		return nil
	}
	s.dependencies[to] = append(s.dependencies[to], from)
	s.dependents[from] = append(s.dependents[from], to)
	return nil
}

// DependenciesOf returns the cards id depends on.
func (s *Store) DependenciesOf(id types.CardID) ([]types.CardID, error) {
	return slices.Clone(s.dependencies[id]), nil
}

// CachedDependentsOf returns the cards that depend on id.
func (s *Store) CachedDependentsOf(id types.CardID) ([]types.CardID, error) {
	return slices.Clone(s.dependents[id]), nil
}
