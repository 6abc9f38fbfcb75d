package transition

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// SetBackRef makes the card ref the answer of card id. An Unfinished card
// becomes Normal. An attribute card's new answer must satisfy its
// pattern's back type. Setting the answer a card already has changes
// nothing.
func (c *Controller) SetBackRef(id, ref types.CardID) (Outcome, error) {
	return c.run(OpSetBackRef, id, func(card *types.Card) (types.CardType, error) {
		return c.withBackRef(card, ref)
	})
}

// ChooseBackRef asks the user which card answers card id, then behaves
// like SetBackRef.
func (c *Controller) ChooseBackRef(id types.CardID) (Outcome, error) {
	return c.run(OpSetBackRef, id, func(card *types.Card) (types.CardType, error) {
		cards, err := c.store.AllCards()
		if err != nil {
			return nil, fmt.Errorf("listing cards: %w", err)
		}
		var others []*types.Card
		var options []string
		for _, other := range cards {
			if other.ID == card.ID {
				continue
			}
			others = append(others, other)
			options = append(options, c.Label(other))
		}
		if len(others) == 0 {
			return nil, reject("there is no other card to answer %q", c.Label(card))
		}
		idx, err := c.prompt.Pick(fmt.Sprintf("Answer of %q", c.Label(card)), options)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(others) {
			return nil, types.ErrCancelled
		}
		return c.withBackRef(card, others[idx].ID)
	})
}

func (c *Controller) withBackRef(card *types.Card, ref types.CardID) (types.CardType, error) {
	if ref == types.NoCard {
		return nil, types.ErrInvalidID
	}
	if ref == card.ID {
		return nil, reject("a card cannot answer itself")
	}
	if _, err := c.store.Load(ref); err != nil {
		return nil, fmt.Errorf("loading answer card %s: %w", ref, err)
	}
	back := types.CardBack(ref)
	if BackOf(card.Type) == back {
		return nil, nil
	}

	switch t := card.Type.(type) {
	case types.Normal:
		t.Back = back
		return t, nil
	case types.Unfinished:
		return types.Normal{Front: t.Front, Back: back}, nil
	case types.Class:
		t.Back = back
		return t, nil
	case types.AttributeCard:
		attr, err := c.store.LoadAttribute(t.Attribute)
		if err != nil {
			return nil, fmt.Errorf("loading attribute %s: %w", t.Attribute, err)
		}
		question, err := c.Front(card)
		if err != nil {
			return nil, err
		}
		if err := c.checkAnswer(attr, question, back); err != nil {
			return nil, err
		}
		t.Back = back
		return t, nil
	case types.Instance, types.Statement, types.Event:
		return nil, reject("a %s card has no answer side", t.Kind())
	}
	return nil, fmt.Errorf("card %s has no type: %w", card.ID, types.ErrInvalidData)
}

// Finish turns an Unfinished card into a Normal card answered by answer.
// An empty answer asks the user; an empty reply cancels.
func (c *Controller) Finish(id types.CardID, answer string) (Outcome, error) {
	return c.run(OpFinish, id, func(card *types.Card) (types.CardType, error) {
		u := card.Type.(types.Unfinished)
		text := strings.TrimSpace(answer)
		if text == "" {
			var err error
			if text, err = c.input(fmt.Sprintf("Answer to %q", u.Front)); err != nil {
				return nil, err
			}
		}
		return types.Normal{Front: u.Front, Back: types.TextBack(text)}, nil
	})
}
