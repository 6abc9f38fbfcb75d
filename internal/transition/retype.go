package transition

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

const newClassOption = "+ new class"

// IntoInstance turns a Normal, Unfinished, Statement or Event card into an
// Instance named after its front. The user picks the class, or creates one.
func (c *Controller) IntoInstance(id types.CardID) (Outcome, error) {
	return c.run(OpIntoInstance, id, func(card *types.Card) (types.CardType, error) {
		name, err := c.Front(card)
		if err != nil {
			return nil, err
		}
		if name == "" {
			if name, err = c.input("Instance name"); err != nil {
				return nil, err
			}
		}
		class, err := c.chooseClass(card.Category, fmt.Sprintf("Class of %q", name))
		if err != nil {
			return nil, err
		}
		return types.Instance{Name: name, Class: class}, nil
	})
}

// IntoClass turns any card into a root Class named after its front, keeping
// its answer side.
func (c *Controller) IntoClass(id types.CardID) (Outcome, error) {
	return c.run(OpIntoClass, id, func(card *types.Card) (types.CardType, error) {
		name, err := c.Front(card)
		if err != nil {
			return nil, err
		}
		if name == "" {
			if name, err = c.input("Class name"); err != nil {
				return nil, err
			}
		}
		return types.Class{Name: name, Back: BackOf(card.Type)}, nil
	})
}

// IntoStatement turns any card into a Statement with the same front.
func (c *Controller) IntoStatement(id types.CardID) (Outcome, error) {
	return c.run(OpIntoStatement, id, func(card *types.Card) (types.CardType, error) {
		front, err := c.Front(card)
		if err != nil {
			return nil, err
		}
		return types.Statement{Front: front}, nil
	})
}

// IntoEvent turns any card into an Event with the same front.
func (c *Controller) IntoEvent(id types.CardID) (Outcome, error) {
	return c.run(OpIntoEvent, id, func(card *types.Card) (types.CardType, error) {
		front, err := c.Front(card)
		if err != nil {
			return nil, err
		}
		return types.Event{Front: front}, nil
	})
}

// chooseClass lets the user pick an existing class or name a new one, which
// is created in category. An empty name cancels.
func (c *Controller) chooseClass(category, prompt string) (types.CardID, error) {
	classes, err := c.store.AllClasses()
	if err != nil {
		return types.NoCard, fmt.Errorf("listing classes: %w", err)
	}
	options := make([]string, 0, len(classes)+1)
	for _, cls := range classes {
		options = append(options, c.Label(cls))
	}
	options = append(options, newClassOption)

	idx, err := c.prompt.Pick(prompt, options)
	if err != nil {
		return types.NoCard, err
	}
	if idx < 0 || idx > len(classes) {
		return types.NoCard, types.ErrCancelled
	}
	if idx < len(classes) {
		return classes[idx].ID, nil
	}

	name, err := c.input("New class name")
	if err != nil {
		return types.NoCard, err
	}
	id, err := c.store.CreateCard(types.Class{Name: name}, category)
	if err != nil {
		return types.NoCard, fmt.Errorf("creating class %q: %w", name, err)
	}
	c.logger.Debug("class created", zap.String("card", string(id)), zap.String("name", name))
	return id, nil
}
