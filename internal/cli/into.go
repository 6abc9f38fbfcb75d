package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cardtree/internal/transition"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// transitionFunc runs one transition on a card.
type transitionFunc func(ctl *transition.Controller, id types.CardID) (transition.Outcome, error)

func newIntoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "into",
		Short: "Change the type of a card",
		Long: `Change the type of a card. Rejected and cancelled transitions print a
notice and leave the card unchanged.`,
	}
	subs := []struct {
		use   string
		short string
		run   transitionFunc
	}{
		{"instance", "Turn a card into an instance of a class", (*transition.Controller).IntoInstance},
		{"class", "Turn a card into a root class", (*transition.Controller).IntoClass},
		{"statement", "Turn a card into a statement", (*transition.Controller).IntoStatement},
		{"event", "Turn a card into an event", (*transition.Controller).IntoEvent},
		{"attribute", "Turn a card into an attribute card about an instance", (*transition.Controller).IntoAttribute},
		{"answer", "Turn a card that depends on an instance into the answer of one of its patterns", (*transition.Controller).IntoAnswer},
	}
	for _, s := range subs {
		cmd.AddCommand(&cobra.Command{
			Use:   s.use + " <id>",
			Short: s.short,
			Args:  exactArgs(1),
			RunE:  a.runTransition(s.run),
		})
	}
	return cmd
}

// runTransition adapts a transition to a cobra RunE that takes the card id
// as its first argument.
func (a *app) runTransition(run transitionFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctl, err := a.controller()
		if err != nil {
			return err
		}
		out, err := run(ctl, types.CardID(args[0]))
		if err != nil {
			return err
		}
		return renderOutcome(cmd.OutOrStdout(), a.flags.jsonMode, out)
	}
}

func newParentCmd(a *app) *cobra.Command {
	var detach bool
	cmd := &cobra.Command{
		Use:   "parent <class> [<parent>]",
		Short: "Set the parent class of a class",
		Long: `Set the parent class of a class. Without a parent argument the parent is
chosen interactively; --none detaches the class. Parenting a class to
itself changes nothing.`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := types.CardID(args[0])
			switch {
			case detach && len(args) == 2:
				return fmt.Errorf("%w: --none takes no parent argument", errUsage)
			case detach:
				return a.runTransition(func(ctl *transition.Controller, id types.CardID) (transition.Outcome, error) {
					return ctl.SetParentClass(id, types.NoCard)
				})(cmd, args)
			case len(args) == 2:
				parent := types.CardID(args[1])
				return a.runTransition(func(ctl *transition.Controller, id types.CardID) (transition.Outcome, error) {
					return ctl.SetParentClass(id, parent)
				})(cmd, []string{string(id)})
			default:
				return a.runTransition((*transition.Controller).ChooseParentClass)(cmd, args)
			}
		},
	}
	cmd.Flags().BoolVar(&detach, "none", false, "remove the parent class")
	return cmd
}

func newPatternCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Declare and list attribute patterns",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new <instance>",
			Short: "Declare a pattern on the class of an instance or one of its ancestors",
			Args:  exactArgs(1),
			RunE:  a.runTransition((*transition.Controller).NewAttributePattern),
		},
		newPatternListCmd(a),
	)
	return cmd
}

func newPatternListCmd(a *app) *cobra.Command {
	var (
		own      bool
		instance string
	)
	cmd := &cobra.Command{
		Use:   "list <class>",
		Short: "List the patterns usable for a class",
		Long: `List the patterns declared on a class and its ancestors, nearest class
first. --own lists only patterns declared on the class itself. --instance
renders each question for that instance.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if own && instance != "" {
				return fmt.Errorf("%w: --own and --instance are exclusive", errUsage)
			}
			ctl, err := a.controller()
			if err != nil {
				return err
			}
			class := types.CardID(args[0])
			var attrs []*types.Attribute
			if own {
				attrs, err = ctl.Attributes().AttributesForClassOnly(class)
			} else {
				attrs, err = ctl.Attributes().AttributesFor(class, types.CardID(instance))
			}
			if err != nil {
				return err
			}

			views := make([]attributeView, 0, len(attrs))
			for _, attr := range attrs {
				v := attributeView{ID: attr.ID, Pattern: attr.Pattern, Class: a.describeRef(ctl, attr.Class)}
				if attr.Constrained() {
					v.BackType = a.describeRef(ctl, attr.BackType)
				}
				if instance != "" {
					if v.Question, err = ctl.Attributes().Question(attr, types.CardID(instance)); err != nil {
						return err
					}
				}
				views = append(views, v)
			}
			return renderAttributes(cmd.OutOrStdout(), a.flags.jsonMode, views)
		},
	}
	cmd.Flags().BoolVar(&own, "own", false, "only patterns declared on the class itself")
	cmd.Flags().StringVar(&instance, "instance", "", "instance to render questions for")
	return cmd
}
