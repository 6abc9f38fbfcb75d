package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cardtree/internal/transition"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

func newCardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Create and inspect cards",
	}
	cmd.AddCommand(newCardAddCmd(a), newCardShowCmd(a), newCardListCmd(a))
	return cmd
}

type cardAddFlags struct {
	kind     string
	front    string
	back     string
	backCard string
	category string
	class    string
	parent   string
	event    bool
}

func newCardAddCmd(a *app) *cobra.Command {
	var f cardAddFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a card and print its id",
		Long: `Create a card of the given kind. The front is the question, or the name
of a class or instance. Attribute cards are made from existing cards with
"deck into attribute".`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller()
			if err != nil {
				return err
			}
			t, err := f.build(a.deck)
			if err != nil {
				return err
			}
			id, err := a.deck.CreateCard(t, f.category)
			if err != nil {
				return fmt.Errorf("creating card: %w", err)
			}
			if a.flags.jsonMode {
				v, err := viewCard(ctl, &types.Card{ID: id, Type: t, Category: f.category})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.kind, "kind", string(types.KindNormal), "normal, unfinished, statement, event, class or instance")
	cmd.Flags().StringVar(&f.front, "front", "", "question, or class/instance name (required)")
	cmd.Flags().StringVar(&f.back, "back", "", "text answer")
	cmd.Flags().StringVar(&f.backCard, "back-card", "", "answer referencing another card")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.class, "class", "", "class of an instance")
	cmd.Flags().StringVar(&f.parent, "parent", "", "parent of a class")
	cmd.Flags().BoolVar(&f.event, "event", false, "mark a class as an event class")
	return cmd
}

// build turns the flags into a card type, checking that referenced classes
// exist.
func (f cardAddFlags) build(store types.CardStore) (types.CardType, error) {
	if f.front == "" {
		return nil, fmt.Errorf("%w: --front is required", errUsage)
	}
	back := types.TextBack(f.back)
	if f.backCard != "" {
		if err := requireKind(store, types.CardID(f.backCard), ""); err != nil {
			return nil, err
		}
		back = types.CardBack(types.CardID(f.backCard))
	}

	switch types.Kind(f.kind) {
	case types.KindNormal:
		return types.Normal{Front: f.front, Back: back}, nil
	case types.KindUnfinished:
		return types.Unfinished{Front: f.front}, nil
	case types.KindStatement:
		return types.Statement{Front: f.front}, nil
	case types.KindEvent:
		return types.Event{Front: f.front}, nil
	case types.KindClass:
		if f.parent != "" {
			if err := requireKind(store, types.CardID(f.parent), types.KindClass); err != nil {
				return nil, err
			}
		}
		return types.Class{Name: f.front, Back: back, ParentClass: types.CardID(f.parent), IsEvent: f.event}, nil
	case types.KindInstance:
		if f.class == "" {
			return nil, fmt.Errorf("%w: --class is required for an instance", errUsage)
		}
		if err := requireKind(store, types.CardID(f.class), types.KindClass); err != nil {
			return nil, err
		}
		return types.Instance{Name: f.front, Class: types.CardID(f.class)}, nil
	case types.KindAttribute:
		return nil, fmt.Errorf("%w: attribute cards are created with \"deck into attribute\"", errUsage)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", errUsage, f.kind)
	}
}

// requireKind checks that id exists and, when kind is set, has that kind.
func requireKind(store types.CardStore, id types.CardID, kind types.Kind) error {
	c, err := store.Load(id)
	if err != nil {
		return err
	}
	if kind != "" && c.Kind() != kind {
		return fmt.Errorf("card %s is a %s, not a %s: %w", id, c.Kind(), kind, types.ErrWrongCardType)
	}
	return nil
}

func newCardShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one card",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller()
			if err != nil {
				return err
			}
			c, err := a.deck.Load(types.CardID(args[0]))
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				v, err := viewCard(ctl, c)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), v)
			}
			t := newTable(cmd.OutOrStdout(), "FIELD", "VALUE")
			t.AppendRows([]table.Row{
				{"id", c.ID},
				{"kind", c.Kind()},
				{"category", c.Category},
				{"front", ctl.Label(c)},
			})
			if back := transition.BackOf(c.Type); !back.IsEmpty() {
				t.AppendRow(table.Row{"back", a.describeBack(ctl, back)})
			}
			switch v := c.Type.(type) {
			case types.Instance:
				t.AppendRow(table.Row{"class", a.describeRef(ctl, v.Class)})
			case types.Class:
				if v.HasParent() {
					t.AppendRow(table.Row{"parent", a.describeRef(ctl, v.ParentClass)})
				}
				t.AppendRow(table.Row{"event class", v.IsEvent})
			case types.AttributeCard:
				t.AppendRow(table.Row{"instance", a.describeRef(ctl, v.Instance)})
				t.AppendRow(table.Row{"attribute", v.Attribute})
			case types.Normal, types.Unfinished, types.Statement, types.Event:
			}
			t.Render()
			return nil
		},
	}
}

// describeRef renders a card reference as "label (id)".
func (a *app) describeRef(ctl *transition.Controller, id types.CardID) string {
	c, err := a.deck.Load(id)
	if err != nil {
		return fmt.Sprintf("%s (missing)", id)
	}
	return fmt.Sprintf("%s (%s)", ctl.Label(c), id)
}

func (a *app) describeBack(ctl *transition.Controller, back types.BackSide) string {
	if back.IsCard() {
		return a.describeRef(ctl, back.Card)
	}
	return back.Text
}

func newCardListCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards in creation order",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && !types.IsValidKind(types.Kind(kind)) {
				return fmt.Errorf("%w: unknown kind %q", errUsage, kind)
			}
			ctl, err := a.controller()
			if err != nil {
				return err
			}
			cards, err := a.deck.AllCards()
			if err != nil {
				return fmt.Errorf("listing cards: %w", err)
			}
			var views []cardView
			for _, c := range cards {
				if kind != "" && c.Kind() != types.Kind(kind) {
					continue
				}
				v, err := viewCard(ctl, c)
				if err != nil {
					return err
				}
				views = append(views, v)
			}
			return renderCards(cmd.OutOrStdout(), a.flags.jsonMode, views)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only list cards of this kind")
	return cmd
}
