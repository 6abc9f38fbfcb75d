package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mesh-intelligence/cardtree/internal/transition"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// cardView is the listing form of a card. Payload is the stored form of
// the card's type; Kind says which variant it decodes to.
type cardView struct {
	ID       types.CardID    `json:"id"`
	Kind     types.Kind      `json:"kind"`
	Category string          `json:"category"`
	Front    string          `json:"front"`
	Payload  json.RawMessage `json:"payload"`
}

func viewCard(ctl *transition.Controller, c *types.Card) (cardView, error) {
	kind, payload, err := types.EncodeType(c.Type)
	if err != nil {
		return cardView{}, fmt.Errorf("card %s: %w", c.ID, err)
	}
	return cardView{ID: c.ID, Kind: kind, Category: c.Category, Front: ctl.Label(c), Payload: payload}, nil
}

// attributeView is the listing form of an attribute pattern.
type attributeView struct {
	ID       types.AttributeID `json:"id"`
	Pattern  string            `json:"pattern"`
	Class    string            `json:"class"`
	BackType string            `json:"back_type,omitempty"`
	Question string            `json:"question,omitempty"`
}

// outcomeView is the JSON form of a transition outcome.
type outcomeView struct {
	Status    string            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Card      types.CardID      `json:"card"`
	Kind      types.Kind        `json:"kind,omitempty"`
	Attribute types.AttributeID `json:"attribute,omitempty"`
	Created   types.CardID      `json:"created,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

func renderCards(w io.Writer, jsonMode bool, cards []cardView) error {
	if jsonMode {
		if cards == nil {
			cards = []cardView{}
		}
		return writeJSON(w, cards)
	}
	if len(cards) == 0 {
		_, _ = fmt.Fprintln(w, "(0 cards)")
		return nil
	}
	t := newTable(w, "ID", "KIND", "CATEGORY", "FRONT")
	for _, c := range cards {
		t.AppendRow(table.Row{c.ID, c.Kind, c.Category, c.Front})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d cards)\n", len(cards))
	return nil
}

func renderAttributes(w io.Writer, jsonMode bool, attrs []attributeView) error {
	if jsonMode {
		if attrs == nil {
			attrs = []attributeView{}
		}
		return writeJSON(w, attrs)
	}
	if len(attrs) == 0 {
		_, _ = fmt.Fprintln(w, "no attribute patterns")
		return nil
	}
	t := newTable(w, "ID", "PATTERN", "CLASS", "ANSWERS", "QUESTION")
	for _, a := range attrs {
		answers := a.BackType
		if answers == "" {
			answers = "any"
		}
		t.AppendRow(table.Row{a.ID, a.Pattern, a.Class, answers, a.Question})
	}
	t.Render()
	return nil
}

func renderOutcome(w io.Writer, jsonMode bool, out transition.Outcome) error {
	v := outcomeView{
		Status:    out.Status.String(),
		Message:   out.Message,
		Card:      out.Card,
		Attribute: out.Attribute,
		Created:   out.Created,
	}
	if out.Type != nil {
		v.Kind = out.Type.Kind()
	}
	if jsonMode {
		return writeJSON(w, v)
	}
	var err error
	switch out.Status {
	case transition.StatusApplied:
		if out.Message != "" {
			_, err = fmt.Fprintln(w, out.Message)
		} else {
			_, err = fmt.Fprintf(w, "card %s is now %s\n", out.Card, v.Kind)
		}
	case transition.StatusUnchanged:
		_, err = fmt.Fprintf(w, "card %s unchanged\n", out.Card)
	default:
		_, err = fmt.Fprintln(w, out.Message)
	}
	return err
}
