package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cardtree/internal/paths"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize deck storage",
		Long:  "Create the configuration and data directories, write a default config.yaml if none exists, then initialize the storage backend.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolving config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, paths.ConfigFileName)
	defaults := types.Config{Backend: defaultBackend, LogLevel: defaultLogLevel}
	if a.flags.dataDir != "" {
		if defaults.DataDir, err = filepath.Abs(a.flags.dataDir); err != nil {
			return fmt.Errorf("resolving data dir: %w", err)
		}
	}
	wrote, err := writeConfigIfMissing(configPath, defaults)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if wrote {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	}

	// Attaching creates the data directory and applies migrations; the
	// deck is detached again when the command finishes.
	if _, err := a.open(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deck initialized successfully")
	return nil
}
