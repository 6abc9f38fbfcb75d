package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cardtree/internal/transition"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

func newDependCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "depend <from> <to>",
		Short: "Record that <to> depends on <from>",
		Long:  "Record that <to> depends on <from>. Repeating an edge has no effect; cycles are allowed.",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller()
			if err != nil {
				return err
			}
			from, to := types.CardID(args[0]), types.CardID(args[1])
			if err := ctl.Graph().AddEdge(from, to); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), types.Dependency{From: from, To: to})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now depends on %s\n", to, from)
			return nil
		},
	}
}

// depsView lists both directions of a card's dependency edges.
type depsView struct {
	Card         types.CardID `json:"card"`
	Dependencies []cardView   `json:"dependencies"`
	Dependents   []cardView   `json:"dependents"`
}

func newDepsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deps <id>",
		Short: "Show what a card depends on and what depends on it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller()
			if err != nil {
				return err
			}
			id := types.CardID(args[0])
			if err := requireKind(a.deck, id, ""); err != nil {
				return err
			}
			deps, err := ctl.Graph().DependenciesOf(id)
			if err != nil {
				return err
			}
			dependents, err := ctl.Graph().DependentsOf(id)
			if err != nil {
				return err
			}
			v := depsView{Card: id}
			if v.Dependencies, err = a.viewIDs(ctl, deps); err != nil {
				return err
			}
			if v.Dependents, err = a.viewIDs(ctl, dependents); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), v)
			}

			t := newTable(cmd.OutOrStdout(), "DIRECTION", "ID", "KIND", "FRONT")
			for _, c := range v.Dependencies {
				t.AppendRow(table.Row{"depends on", c.ID, c.Kind, c.Front})
			}
			for _, c := range v.Dependents {
				t.AppendRow(table.Row{"needed by", c.ID, c.Kind, c.Front})
			}
			t.Render()
			return nil
		},
	}
}

func newAncestorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ancestors <class>",
		Short: "Show a class followed by its ancestors, nearest first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller()
			if err != nil {
				return err
			}
			chain, err := ctl.Hierarchy().AncestorChain(types.CardID(args[0]))
			if err != nil {
				return err
			}
			views, err := a.viewIDs(ctl, chain)
			if err != nil {
				return err
			}
			return renderCards(cmd.OutOrStdout(), a.flags.jsonMode, views)
		},
	}
}

func newSubclassCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subclass <class>",
		Short: "List the instances of a class and of all its subclasses",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := a.controller()
			if err != nil {
				return err
			}
			ids, err := ctl.Hierarchy().SubclassCards(types.CardID(args[0]))
			if err != nil {
				return err
			}
			views, err := a.viewIDs(ctl, ids)
			if err != nil {
				return err
			}
			return renderCards(cmd.OutOrStdout(), a.flags.jsonMode, views)
		},
	}
}

func (a *app) viewIDs(ctl *transition.Controller, ids []types.CardID) ([]cardView, error) {
	views := make([]cardView, 0, len(ids))
	for _, id := range ids {
		c, err := a.deck.Load(id)
		if err != nil {
			return nil, err
		}
		v, err := viewCard(ctl, c)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
