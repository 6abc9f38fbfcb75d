package transition

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// NewDependency asks for a new card and makes card id depend on it. The
// new card shares id's category; without an answer it is Unfinished.
func (c *Controller) NewDependency(id types.CardID) (Outcome, error) {
	return c.act(OpNewDependency, id, func(card *types.Card) (Outcome, error) {
		created, err := c.newCard(card.Category)
		if err != nil {
			return Outcome{}, err
		}
		if err := c.graph.AddEdge(created, card.ID); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Status:  StatusApplied,
			Message: fmt.Sprintf("created card %s; %q now depends on it", created, c.Label(card)),
			Card:    card.ID,
			Type:    card.Type,
			Created: created,
		}, nil
	})
}

// NewDependent asks for a new card that depends on card id. The new card
// shares id's category; without an answer it is Unfinished.
func (c *Controller) NewDependent(id types.CardID) (Outcome, error) {
	return c.act(OpNewDependent, id, func(card *types.Card) (Outcome, error) {
		created, err := c.newCard(card.Category)
		if err != nil {
			return Outcome{}, err
		}
		if err := c.graph.AddEdge(card.ID, created); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Status:  StatusApplied,
			Message: fmt.Sprintf("created card %s depending on %q", created, c.Label(card)),
			Card:    card.ID,
			Type:    card.Type,
			Created: created,
		}, nil
	})
}

// newCard asks for a front and an answer and stores the card. An empty
// front cancels.
func (c *Controller) newCard(category string) (types.CardID, error) {
	front, err := c.input("Front")
	if err != nil {
		return types.NoCard, err
	}
	back, err := c.prompt.Input("Back (empty leaves the card unfinished)")
	if err != nil {
		return types.NoCard, err
	}
	var t types.CardType = types.Unfinished{Front: front}
	if back = strings.TrimSpace(back); back != "" {
		t = types.Normal{Front: front, Back: types.TextBack(back)}
	}
	id, err := c.store.CreateCard(t, category)
	if err != nil {
		return types.NoCard, fmt.Errorf("creating card: %w", err)
	}
	c.logger.Debug("card created", zap.String("card", string(id)), zap.String("kind", string(t.Kind())))
	return id, nil
}
