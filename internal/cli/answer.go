package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cardtree/internal/transition"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

func newFillCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fill <instance>",
		Short: "Create an attribute card answering one of an instance's patterns",
		Long: `Create an attribute card about an instance. The pattern is chosen among
those the instance's class declares or inherits, and the answer must fit
the pattern's answer class when it has one.`,
		Args: exactArgs(1),
		RunE: a.runTransition((*transition.Controller).FillAttribute),
	}
}

func newBackRefCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backref <id> [<answer>]",
		Short: "Make another card the answer of a card",
		Long: `Make another card the answer of a card. Without an answer argument the
card is chosen interactively. An unfinished card becomes a normal card.`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.runTransition((*transition.Controller).ChooseBackRef)(cmd, args)
			}
			ref := types.CardID(args[1])
			return a.runTransition(func(ctl *transition.Controller, id types.CardID) (transition.Outcome, error) {
				return ctl.SetBackRef(id, ref)
			})(cmd, args[:1])
		},
	}
}

func newFinishCmd(a *app) *cobra.Command {
	var answer string
	cmd := &cobra.Command{
		Use:   "finish <id>",
		Short: "Give an unfinished card its answer",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTransition(func(ctl *transition.Controller, id types.CardID) (transition.Outcome, error) {
				return ctl.Finish(id, answer)
			})(cmd, args)
		},
	}
	cmd.Flags().StringVar(&answer, "answer", "", "answer text (asked for when empty)")
	return cmd
}

func newNewDependencyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new-dependency <id>",
		Short: "Write a new card that <id> depends on",
		Args:  exactArgs(1),
		RunE:  a.runTransition((*transition.Controller).NewDependency),
	}
}

func newNewDependentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new-dependent <id>",
		Short: "Write a new card that depends on <id>",
		Args:  exactArgs(1),
		RunE:  a.runTransition((*transition.Controller).NewDependent),
	}
}
