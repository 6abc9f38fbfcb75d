package transition

import (
	"fmt"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

const noParentOption = "(no parent)"

// SetParentClass makes parent the parent class of the Class card id.
// Parenting a class to itself, or to its current parent, changes nothing.
// NoCard as parent detaches the class. Cycles through other classes are
// allowed; hierarchy walks tolerate them.
func (c *Controller) SetParentClass(id, parent types.CardID) (Outcome, error) {
	return c.run(OpSetParentClass, id, func(card *types.Card) (types.CardType, error) {
		return c.reparent(card, parent)
	})
}

// ChooseParentClass asks the user for the parent of the Class card id among
// the other classes.
func (c *Controller) ChooseParentClass(id types.CardID) (Outcome, error) {
	return c.run(OpSetParentClass, id, func(card *types.Card) (types.CardType, error) {
		classes, err := c.store.AllClasses()
		if err != nil {
			return nil, fmt.Errorf("listing classes: %w", err)
		}
		var others []*types.Card
		options := []string{noParentOption}
		for _, cls := range classes {
			if cls.ID == card.ID {
				continue
			}
			others = append(others, cls)
			options = append(options, c.Label(cls))
		}
		idx, err := c.prompt.Pick(fmt.Sprintf("Parent class of %q", c.Label(card)), options)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx > len(others) {
			return nil, types.ErrCancelled
		}
		parent := types.NoCard
		if idx > 0 {
			parent = others[idx-1].ID
		}
		return c.reparent(card, parent)
	})
}

func (c *Controller) reparent(card *types.Card, parent types.CardID) (types.CardType, error) {
	cls := card.Type.(types.Class)
	if parent == card.ID || parent == cls.ParentClass {
		return nil, nil
	}
	if parent != types.NoCard {
		pc, err := c.store.Load(parent)
		if err != nil {
			return nil, fmt.Errorf("loading parent %s: %w", parent, err)
		}
		if pc.Kind() != types.KindClass {
			return nil, reject("%q is a %s card, not a class", c.Label(pc), pc.Kind())
		}
	}
	cls.ParentClass = parent
	return cls, nil
}
