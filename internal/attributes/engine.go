// Package attributes enumerates the attribute patterns usable for a class or
// instance and narrows the legal answers of patterns that constrain their
// answer's class.
package attributes

import (
	"fmt"

	"github.com/mesh-intelligence/cardtree/internal/hierarchy"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// Store is the part of the store contract the engine reads and writes.
type Store interface {
	types.CardStore
	types.AttributeStore
}

// Engine resolves attribute patterns along the class hierarchy.
type Engine struct {
	store     Store
	hierarchy *hierarchy.Hierarchy
}

// New returns an Engine over store.
func New(store Store) *Engine {
	return &Engine{store: store, hierarchy: hierarchy.New(store)}
}

// Candidates is the set of answers an attribute accepts. When Restricted is
// false any text or card answer is allowed and Cards is nil.
type Candidates struct {
	Restricted bool
	Cards      []types.CardID
}

// AttributesFor returns the patterns declared on class or any of its
// ancestors, nearest class first, each pattern once. Subclass instances
// inherit every superclass pattern. When instance is not NoCard it must be an
// Instance card.
func (e *Engine) AttributesFor(class, instance types.CardID) ([]*types.Attribute, error) {
	if instance != types.NoCard {
		if _, err := e.loadInstance(instance); err != nil {
			return nil, err
		}
	}
	chain, err := e.hierarchy.AncestorChain(class)
	if err != nil {
		return nil, err
	}
	var out []*types.Attribute
	seen := make(map[types.AttributeID]bool)
	for _, c := range chain {
		attrs, err := e.store.AttributesOfClass(c)
		if err != nil {
			return nil, fmt.Errorf("listing attributes of %s: %w", c, err)
		}
		for _, a := range attrs {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
		}
	}
	return out, nil
}

// AttributesForClassOnly returns the patterns declared exactly on class.
func (e *Engine) AttributesForClassOnly(class types.CardID) ([]*types.Attribute, error) {
	if _, err := e.loadClass(class); err != nil {
		return nil, err
	}
	attrs, err := e.store.AttributesOfClass(class)
	if err != nil {
		return nil, fmt.Errorf("listing attributes of %s: %w", class, err)
	}
	return attrs, nil
}

// Create allocates a new pattern on class. backType, when not NoCard, must
// also reference a Class card.
func (e *Engine) Create(pattern string, class, backType types.CardID) (*types.Attribute, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern: %w", types.ErrInvalidData)
	}
	if _, err := e.loadClass(class); err != nil {
		return nil, err
	}
	if backType != types.NoCard {
		if _, err := e.loadClass(backType); err != nil {
			return nil, err
		}
	}
	id, err := e.store.CreateAttribute(pattern, class, backType)
	if err != nil {
		return nil, fmt.Errorf("creating attribute: %w", err)
	}
	return &types.Attribute{ID: id, Pattern: pattern, Class: class, BackType: backType}, nil
}

// ResolveBackCandidates returns the answers attr accepts. An unconstrained
// attribute accepts anything; a constrained one accepts only instances of
// its back type and that type's subclasses.
func (e *Engine) ResolveBackCandidates(attr *types.Attribute) (Candidates, error) {
	if !attr.Constrained() {
		return Candidates{}, nil
	}
	cards, err := e.hierarchy.SubclassCards(attr.BackType)
	if err != nil {
		return Candidates{}, fmt.Errorf("resolving back type of %s: %w", attr.ID, err)
	}
	return Candidates{Restricted: true, Cards: cards}, nil
}

// CheckAnswer reports whether back is a legal answer for attr. A violation
// wraps ErrAnswerRejected; a dangling card reference wraps ErrNotFound.
func (e *Engine) CheckAnswer(attr *types.Attribute, back types.BackSide) error {
	if back.IsCard() {
		ok, err := e.store.Exists(back.Card)
		if err != nil {
			return fmt.Errorf("checking answer card %s: %w", back.Card, err)
		}
		if !ok {
			return fmt.Errorf("answer card %s: %w", back.Card, types.ErrNotFound)
		}
	}
	if !attr.Constrained() {
		return nil
	}
	if !back.IsCard() {
		return fmt.Errorf("%w: %q requires a card answer, not text", types.ErrAnswerRejected, attr.Pattern)
	}
	cand, err := e.ResolveBackCandidates(attr)
	if err != nil {
		return err
	}
	for _, id := range cand.Cards {
		if id == back.Card {
			return nil
		}
	}
	return fmt.Errorf("%w: card %s is not an instance of the required class", types.ErrAnswerRejected, back.Card)
}

// Question renders attr for instance, loading the instance's name.
func (e *Engine) Question(attr *types.Attribute, instance types.CardID) (string, error) {
	inst, err := e.loadInstance(instance)
	if err != nil {
		return "", err
	}
	return attr.Question(inst.Name), nil
}

func (e *Engine) loadInstance(id types.CardID) (types.Instance, error) {
	c, err := e.store.Load(id)
	if err != nil {
		return types.Instance{}, fmt.Errorf("loading instance %s: %w", id, err)
	}
	inst, ok := c.Type.(types.Instance)
	if !ok {
		return types.Instance{}, fmt.Errorf("card %s is a %s, not an instance: %w", id, c.Kind(), types.ErrWrongCardType)
	}
	return inst, nil
}

func (e *Engine) loadClass(id types.CardID) (types.Class, error) {
	c, err := e.store.Load(id)
	if err != nil {
		return types.Class{}, fmt.Errorf("loading class %s: %w", id, err)
	}
	cls, ok := c.Type.(types.Class)
	if !ok {
		return types.Class{}, fmt.Errorf("card %s is a %s, not a class: %w", id, c.Kind(), types.ErrWrongCardType)
	}
	return cls, nil
}
