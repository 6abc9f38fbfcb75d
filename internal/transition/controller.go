package transition

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/cardtree/internal/attributes"
	"github.com/mesh-intelligence/cardtree/internal/graph"
	"github.com/mesh-intelligence/cardtree/internal/hierarchy"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// Controller performs type transitions against a store.
type Controller struct {
	store     types.Store
	hierarchy *hierarchy.Hierarchy
	attrs     *attributes.Engine
	graph     *graph.Editor
	prompt    Prompter
	logger    *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Controller over store asking prompt for user input.
func New(store types.Store, prompt Prompter, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		hierarchy: hierarchy.New(store),
		attrs:     attributes.New(store),
		graph:     graph.New(store),
		prompt:    prompt,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hierarchy returns the class hierarchy queries used by the controller.
func (c *Controller) Hierarchy() *hierarchy.Hierarchy { return c.hierarchy }

// Attributes returns the attribute resolution engine used by the controller.
func (c *Controller) Attributes() *attributes.Engine { return c.attrs }

// Graph returns the dependency graph editor used by the controller.
func (c *Controller) Graph() *graph.Editor { return c.graph }

// buildFunc computes the new type for card. A nil type with a nil error
// means the transition is a no-op.
type buildFunc func(card *types.Card) (types.CardType, error)

// run loads the card, checks the transition table, builds the new type and
// persists it.
func (c *Controller) run(op Op, id types.CardID, build buildFunc) (Outcome, error) {
	card, err := c.store.Load(id)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading card %s: %w", id, err)
	}
	if !Legal(op, card.Kind()) {
		return c.settle(op, card, reject("a %s card cannot %s", card.Kind(), op.describe()))
	}
	t, err := build(card)
	if err != nil {
		return c.settle(op, card, err)
	}
	if t == nil {
		return Outcome{Status: StatusUnchanged, Card: card.ID, Type: card.Type}, nil
	}
	from := card.Kind()
	if err := card.IntoType(c.store, t); err != nil {
		return Outcome{}, fmt.Errorf("retyping card %s: %w", card.ID, err)
	}
	c.logger.Debug("card retyped",
		zap.String("op", string(op)),
		zap.String("card", string(card.ID)),
		zap.String("from", string(from)),
		zap.String("to", string(t.Kind())))
	return Outcome{Status: StatusApplied, Card: card.ID, Type: t}, nil
}

// act runs an operation that leaves the card's type alone, such as
// creating a card next to it. Rejections and cancellations from do are
// settled like those of run.
func (c *Controller) act(op Op, id types.CardID, do func(card *types.Card) (Outcome, error)) (Outcome, error) {
	card, err := c.store.Load(id)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading card %s: %w", id, err)
	}
	if !Legal(op, card.Kind()) {
		return c.settle(op, card, reject("a %s card cannot %s", card.Kind(), op.describe()))
	}
	out, err := do(card)
	if err != nil {
		return c.settle(op, card, err)
	}
	return out, nil
}

// settle absorbs cancellations and rejections into an Outcome and passes
// every other error through.
func (c *Controller) settle(op Op, card *types.Card, err error) (Outcome, error) {
	switch {
	case errors.Is(err, types.ErrCancelled):
		c.logger.Debug("transition cancelled", zap.String("op", string(op)), zap.String("card", string(card.ID)))
		return Outcome{Status: StatusCancelled, Message: "cancelled", Card: card.ID, Type: card.Type}, nil
	case errors.Is(err, types.ErrInvalidTransition):
		msg := notice(err)
		c.logger.Debug("transition rejected",
			zap.String("op", string(op)),
			zap.String("card", string(card.ID)),
			zap.String("notice", msg))
		return Outcome{Status: StatusRejected, Message: msg, Card: card.ID, Type: card.Type}, nil
	default:
		return Outcome{}, err
	}
}

// Front returns the text a card shows on its front. An attribute card shows
// its rendered question.
func (c *Controller) Front(card *types.Card) (string, error) {
	switch t := card.Type.(type) {
	case types.Normal:
		return t.Front, nil
	case types.Unfinished:
		return t.Front, nil
	case types.Instance:
		return t.Name, nil
	case types.Class:
		return t.Name, nil
	case types.AttributeCard:
		attr, err := c.store.LoadAttribute(t.Attribute)
		if err != nil {
			return "", fmt.Errorf("loading attribute %s: %w", t.Attribute, err)
		}
		q, err := c.attrs.Question(attr, t.Instance)
		if errors.Is(err, types.ErrWrongCardType) {
			return attr.Pattern, nil
		}
		return q, err
	case types.Statement:
		return t.Front, nil
	case types.Event:
		return t.Front, nil
	}
	return "", fmt.Errorf("card %s has no type: %w", card.ID, types.ErrInvalidData)
}

// BackOf returns the answer side of a card type. Kinds without one, and a
// nil type, return an empty BackSide.
func BackOf(t types.CardType) types.BackSide {
	switch t := t.(type) {
	case types.Normal:
		return t.Back
	case types.Class:
		return t.Back
	case types.AttributeCard:
		return t.Back
	case types.Unfinished, types.Instance, types.Statement, types.Event:
	}
	return types.BackSide{}
}

// input asks for a line of text and treats an empty answer as cancellation.
func (c *Controller) input(prompt string) (string, error) {
	s, err := c.prompt.Input(prompt)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", types.ErrCancelled
	}
	return s, nil
}

// Label returns a short display name for a card: its front, or its id when
// the front is empty or cannot be rendered.
func (c *Controller) Label(card *types.Card) string {
	name, err := c.Front(card)
	if err != nil || name == "" {
		return string(card.ID)
	}
	return name
}
