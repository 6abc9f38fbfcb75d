package transition

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

const (
	newInstanceOption  = "+ new instance"
	noBackTypeOption   = "any answer"
	patternInputPrompt = "Pattern (use {} for the instance name)"
)

// IntoAttribute turns a Normal or Unfinished card into an attribute card:
// the user picks an instance (or creates one), a pattern available to the
// instance's class, and an answer that satisfies the pattern's back type.
func (c *Controller) IntoAttribute(id types.CardID) (Outcome, error) {
	return c.run(OpIntoAttribute, id, func(card *types.Card) (types.CardType, error) {
		inst, err := c.chooseInstance(card.Category)
		if err != nil {
			return nil, err
		}
		attr, question, err := c.choosePattern(inst)
		if err != nil {
			return nil, err
		}
		back, err := c.chooseAnswer(attr, question, BackOf(card.Type))
		if err != nil {
			return nil, err
		}
		if err := c.checkAnswer(attr, question, back); err != nil {
			return nil, err
		}
		return types.AttributeCard{Attribute: attr.ID, Back: back, Instance: inst.ID}, nil
	})
}

// IntoAnswer turns a card that depends on an Instance into the attribute
// card answering one of that instance's patterns, keeping its current
// answer side. A single Instance dependency is used implicitly; several
// require a choice; none rejects.
func (c *Controller) IntoAnswer(id types.CardID) (Outcome, error) {
	return c.run(OpIntoAnswer, id, func(card *types.Card) (types.CardType, error) {
		insts, err := c.graph.InstanceDependencies(card.ID)
		if err != nil {
			return nil, err
		}
		var inst *types.Card
		switch len(insts) {
		case 0:
			return nil, reject("the card does not depend on any instance")
		case 1:
			inst = insts[0]
		default:
			options := make([]string, len(insts))
			for i, ic := range insts {
				options[i] = c.Label(ic)
			}
			idx, err := c.prompt.Pick("Instance this card answers for", options)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(insts) {
				return nil, types.ErrCancelled
			}
			inst = insts[idx]
		}

		back := BackOf(card.Type)
		if back.IsEmpty() {
			return nil, reject("a %s card has no answer to reuse", card.Kind())
		}
		attr, question, err := c.choosePattern(inst)
		if err != nil {
			return nil, err
		}
		if err := c.checkAnswer(attr, question, back); err != nil {
			return nil, err
		}
		return types.AttributeCard{Attribute: attr.ID, Back: back, Instance: inst.ID}, nil
	})
}

// NewAttributePattern declares a new pattern on the class of the Instance
// card id, or on one of that class's ancestors. The card keeps its type.
func (c *Controller) NewAttributePattern(id types.CardID) (Outcome, error) {
	return c.act(OpNewAttributePattern, id, func(card *types.Card) (Outcome, error) {
		attr, err := c.newPattern(card, card.Type.(types.Instance))
		if err != nil {
			return Outcome{}, err
		}
		c.logger.Debug("attribute pattern created",
			zap.String("attribute", string(attr.ID)),
			zap.String("class", string(attr.Class)),
			zap.String("pattern", attr.Pattern))
		return Outcome{
			Status:    StatusApplied,
			Message:   fmt.Sprintf("created pattern %q", attr.Pattern),
			Card:      card.ID,
			Type:      card.Type,
			Attribute: attr.ID,
		}, nil
	})
}

// FillAttribute creates a new attribute card about the Instance card id:
// the user picks one of the patterns its class has or inherits and answers
// it. The answer must satisfy the pattern's back type. The new card goes in
// the instance's category; the instance itself is untouched.
func (c *Controller) FillAttribute(id types.CardID) (Outcome, error) {
	return c.act(OpFillAttribute, id, func(card *types.Card) (Outcome, error) {
		attr, question, err := c.choosePattern(card)
		if err != nil {
			return Outcome{}, err
		}
		back, err := c.chooseAnswer(attr, question, types.BackSide{})
		if err != nil {
			return Outcome{}, err
		}
		if err := c.checkAnswer(attr, question, back); err != nil {
			return Outcome{}, err
		}
		t := types.AttributeCard{Attribute: attr.ID, Back: back, Instance: card.ID}
		created, err := c.store.CreateCard(t, card.Category)
		if err != nil {
			return Outcome{}, fmt.Errorf("creating attribute card: %w", err)
		}
		c.logger.Debug("attribute card created",
			zap.String("card", string(created)),
			zap.String("instance", string(card.ID)),
			zap.String("attribute", string(attr.ID)))
		return Outcome{
			Status:    StatusApplied,
			Message:   fmt.Sprintf("created card %s: %s", created, question),
			Card:      card.ID,
			Type:      card.Type,
			Attribute: attr.ID,
			Created:   created,
		}, nil
	})
}

func (c *Controller) newPattern(card *types.Card, inst types.Instance) (*types.Attribute, error) {
	ix, err := c.hierarchy.Snapshot()
	if err != nil {
		return nil, err
	}
	if !ix.IsClass(inst.Class) {
		return nil, reject("the class of %q no longer exists", inst.Name)
	}
	chain := ix.Ancestors(inst.Class)
	class := chain[0]
	if len(chain) > 1 {
		options := make([]string, len(chain))
		for i, cls := range chain {
			options[i] = ix.Name(cls)
		}
		idx, err := c.prompt.Pick("Class to declare the pattern on", options)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(chain) {
			return nil, types.ErrCancelled
		}
		class = chain[idx]
	}

	pattern, err := c.input(patternInputPrompt)
	if err != nil {
		return nil, err
	}

	classes, err := c.store.AllClasses()
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	options := make([]string, 0, len(classes)+1)
	options = append(options, noBackTypeOption)
	for _, cls := range classes {
		options = append(options, c.Label(cls))
	}
	idx, err := c.prompt.Pick("Answers must be instances of", options)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx > len(classes) {
		return nil, types.ErrCancelled
	}
	backType := types.NoCard
	if idx > 0 {
		backType = classes[idx-1].ID
	}
	return c.attrs.Create(pattern, class, backType)
}

// chooseInstance lets the user pick an existing instance or create one in
// category.
func (c *Controller) chooseInstance(category string) (*types.Card, error) {
	cards, err := c.store.AllCards()
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	var insts []*types.Card
	for _, card := range cards {
		if card.Kind() == types.KindInstance {
			insts = append(insts, card)
		}
	}
	options := make([]string, 0, len(insts)+1)
	for _, ic := range insts {
		options = append(options, c.Label(ic))
	}
	options = append(options, newInstanceOption)

	idx, err := c.prompt.Pick("Instance the attribute is about", options)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx > len(insts) {
		return nil, types.ErrCancelled
	}
	if idx < len(insts) {
		return insts[idx], nil
	}

	name, err := c.input("New instance name")
	if err != nil {
		return nil, err
	}
	class, err := c.chooseClass(category, fmt.Sprintf("Class of %q", name))
	if err != nil {
		return nil, err
	}
	t := types.Instance{Name: name, Class: class}
	id, err := c.store.CreateCard(t, category)
	if err != nil {
		return nil, fmt.Errorf("creating instance %q: %w", name, err)
	}
	c.logger.Debug("instance created", zap.String("card", string(id)), zap.String("name", name))
	return &types.Card{ID: id, Type: t, Category: category}, nil
}

// choosePattern lets the user pick one of the patterns available to the
// instance's class and returns it with its rendered question. No available
// pattern rejects.
func (c *Controller) choosePattern(instCard *types.Card) (*types.Attribute, string, error) {
	inst := instCard.Type.(types.Instance)
	attrs, err := c.attrs.AttributesFor(inst.Class, instCard.ID)
	if errors.Is(err, types.ErrWrongCardType) || errors.Is(err, types.ErrNotFound) {
		return nil, "", reject("the class of %q no longer exists", inst.Name)
	}
	if err != nil {
		return nil, "", err
	}
	if len(attrs) == 0 {
		return nil, "", reject("no attribute patterns are available for %q; add one to its class first", inst.Name)
	}
	options := make([]string, len(attrs))
	for i, a := range attrs {
		options[i] = a.Question(inst.Name)
	}
	idx, err := c.prompt.Pick("Attribute", options)
	if err != nil {
		return nil, "", err
	}
	if idx < 0 || idx >= len(attrs) {
		return nil, "", types.ErrCancelled
	}
	return attrs[idx], options[idx], nil
}

// chooseAnswer asks for the answer to question. A constrained attribute
// offers only its candidate instances; otherwise the user types the answer,
// and an empty line keeps current when there is one.
func (c *Controller) chooseAnswer(attr *types.Attribute, question string, current types.BackSide) (types.BackSide, error) {
	cand, err := c.attrs.ResolveBackCandidates(attr)
	if err != nil {
		return types.BackSide{}, err
	}
	if cand.Restricted {
		if len(cand.Cards) == 0 {
			return types.BackSide{}, reject("no instance of the required class can answer %q", question)
		}
		options := make([]string, len(cand.Cards))
		for i, id := range cand.Cards {
			card, err := c.store.Load(id)
			if err != nil {
				return types.BackSide{}, fmt.Errorf("loading candidate %s: %w", id, err)
			}
			options[i] = c.Label(card)
		}
		idx, err := c.prompt.Pick(question, options)
		if err != nil {
			return types.BackSide{}, err
		}
		if idx < 0 || idx >= len(cand.Cards) {
			return types.BackSide{}, types.ErrCancelled
		}
		return types.CardBack(cand.Cards[idx]), nil
	}

	prompt := question
	if current.Text != "" && !current.IsCard() {
		prompt = fmt.Sprintf("%s [%s]", question, current.Text)
	}
	text, err := c.input(prompt)
	if errors.Is(err, types.ErrCancelled) && !current.IsEmpty() {
		return current, nil
	}
	if err != nil {
		return types.BackSide{}, err
	}
	return types.TextBack(text), nil
}

// checkAnswer turns a back-type violation into a rejection.
func (c *Controller) checkAnswer(attr *types.Attribute, question string, back types.BackSide) error {
	err := c.attrs.CheckAnswer(attr, back)
	if errors.Is(err, types.ErrAnswerRejected) {
		if back.IsCard() {
			return reject("the answer to %q must be an instance of the required class", question)
		}
		return reject("the answer to %q must be a card, not text", question)
	}
	return err
}
