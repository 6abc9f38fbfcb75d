package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// snapshotter is implemented by decks that can write and read JSONL
// snapshots.
type snapshotter interface {
	Export(dir string) error
	Import(dir string) error
}

func (a *app) snapshots() (snapshotter, error) {
	d, err := a.open()
	if err != nil {
		return nil, err
	}
	s, ok := d.(snapshotter)
	if !ok {
		return nil, fmt.Errorf("%w: this backend does not support snapshots", errUsage)
	}
	return s, nil
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the deck as JSONL files into a directory",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.snapshots()
			if err != nil {
				return err
			}
			if err := s.Export(args[0]); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load JSONL files from a directory into the deck",
		Long:  "Load cards.jsonl, attributes.jsonl and dependencies.jsonl from a directory. Rows whose id already exists are kept as they are.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.snapshots()
			if err != nil {
				return err
			}
			if err := s.Import(args[0]); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported from %s\n", args[0])
			return nil
		},
	}
}
