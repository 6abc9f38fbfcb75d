package hierarchy

import (
	"fmt"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// Hierarchy answers class hierarchy queries against a card store.
type Hierarchy struct {
	store types.CardStore
}

// New returns a Hierarchy reading from store.
func New(store types.CardStore) *Hierarchy {
	return &Hierarchy{store: store}
}

// Snapshot builds an Index over every card in the store.
func (h *Hierarchy) Snapshot() (*Index, error) {
	cards, err := h.store.AllCards()
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	return NewIndex(cards), nil
}

func (h *Hierarchy) classSnapshot() (*Index, error) {
	classes, err := h.store.AllClasses()
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	return NewIndex(classes), nil
}

// AncestorChain returns class followed by its ancestors, nearest first.
// Returns ErrNotFound if class does not exist and ErrWrongCardType if it is
// not a Class card.
func (h *Hierarchy) AncestorChain(class types.CardID) ([]types.CardID, error) {
	ix, err := h.classSnapshot()
	if err != nil {
		return nil, err
	}
	if err := h.requireClass(ix, class); err != nil {
		return nil, err
	}
	return ix.Ancestors(class), nil
}

// Descendants returns class and every class below it.
func (h *Hierarchy) Descendants(class types.CardID) ([]types.CardID, error) {
	ix, err := h.classSnapshot()
	if err != nil {
		return nil, err
	}
	if err := h.requireClass(ix, class); err != nil {
		return nil, err
	}
	return ix.Descendants(class), nil
}

// SubclassCards returns every Instance whose class lies in the descendant
// closure of class, itself included.
func (h *Hierarchy) SubclassCards(class types.CardID) ([]types.CardID, error) {
	ix, err := h.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := h.requireClass(ix, class); err != nil {
		return nil, err
	}
	return ix.SubclassCards(class), nil
}

// requireClass distinguishes a missing id from an id of the wrong kind.
func (h *Hierarchy) requireClass(ix *Index, id types.CardID) error {
	if id == types.NoCard {
		return types.ErrInvalidID
	}
	if ix.IsClass(id) {
		return nil
	}
	ok, err := h.store.Exists(id)
	if err != nil {
		return fmt.Errorf("checking card %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("class %s: %w", id, types.ErrNotFound)
	}
	return fmt.Errorf("card %s is not a class: %w", id, types.ErrWrongCardType)
}
