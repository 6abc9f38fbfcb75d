// Package cli implements the deck command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/cardtree/internal/memstore"
	"github.com/mesh-intelligence/cardtree/internal/transition"
	"github.com/mesh-intelligence/cardtree/pkg/sqlite"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks malformed command lines.
var errUsage = errors.New("usage error")

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by one invocation of the command tree.
type app struct {
	flags  rootFlags
	logger *zap.Logger
	// level is nil when the logger was injected.
	level *zap.AtomicLevel

	deck      types.Deck
	ownsDeck  bool
	prompter  transition.Prompter
	closeTerm func() error
}

// Option configures the command tree. Tests use options to inject a deck
// and a scripted prompter.
type Option func(*app)

// WithDeck makes every command use d instead of opening the configured
// backend. The caller keeps ownership of d.
func WithDeck(d types.Deck) Option {
	return func(a *app) { a.deck = d }
}

// WithPrompter replaces the terminal prompter.
func WithPrompter(p transition.Prompter) Option {
	return func(a *app) { a.prompter = p }
}

// WithLogger replaces the production logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *app) { a.logger = l }
}

// NewRootCmd creates the top-level "deck" command with global flags and all
// subcommands registered.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}
	return newRootCmd(a)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "deck",
		Short: "Typed flashcards with classes, attributes and dependencies",
		Long: `deck keeps flashcards whose type can change during review.

Cards are plain questions, statements, events, classes, instances of a
class, or attribute cards built from a pattern declared on a class. Cards
can depend on other cards.`,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $DECK_CONFIG_DIR or the per-user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: .deck-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable debug logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newCardCmd(a),
		newIntoCmd(a),
		newParentCmd(a),
		newPatternCmd(a),
		newFillCmd(a),
		newBackRefCmd(a),
		newFinishCmd(a),
		newDependCmd(a),
		newNewDependencyCmd(a),
		newNewDependentCmd(a),
		newDepsCmd(a),
		newAncestorsCmd(a),
		newSubclassCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	os.Exit(exitCode(err))
}

// exitCode maps an error to the process exit code: bad input and stale ids
// are user errors, everything else is a system error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errUsage),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrWrongCardType),
		errors.Is(err, types.ErrBackendEmpty),
		errors.Is(err, types.ErrBackendUnknown),
		errors.Is(err, types.ErrLogLevelInvalid):
		return exitUserError
	default:
		return exitSysError
	}
}

// initLogger builds the production logger unless one was injected.
func (a *app) initLogger() error {
	if a.logger != nil {
		return nil
	}
	config := zap.NewProductionConfig()
	if a.flags.verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	a.level = &config.Level
	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// open returns the deck, attaching the configured backend on first use.
func (a *app) open() (types.Deck, error) {
	if a.deck != nil {
		return a.deck, nil
	}
	cfg, err := loadConfig(a.flags.configDir, a.flags.dataDir)
	if err != nil {
		return nil, err
	}
	if !a.flags.verbose && cfg.LogLevel != "" && a.level != nil {
		if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
			a.level.SetLevel(lvl)
		}
	}

	var d types.Deck
	switch cfg.Backend {
	case types.BackendMemory:
		d = memstore.New()
	default:
		d = sqlite.NewBackend(a.logger)
	}
	if err := d.Attach(cfg); err != nil {
		return nil, fmt.Errorf("opening %s deck: %w", cfg.Backend, err)
	}
	a.logger.Debug("deck opened", zap.String("backend", cfg.Backend), zap.String("data_dir", cfg.DataDir))
	a.deck = d
	a.ownsDeck = true
	return d, nil
}

// controller returns a transition controller over the deck. Without an
// injected prompter it asks on the terminal.
func (a *app) controller() (*transition.Controller, error) {
	d, err := a.open()
	if err != nil {
		return nil, err
	}
	if a.prompter == nil {
		p := &terminalPrompter{in: os.Stdin, out: os.Stdout}
		a.prompter = p
		a.closeTerm = p.Close
	}
	return transition.New(d, a.prompter, transition.WithLogger(a.logger)), nil
}

// close releases what open and controller acquired. It is safe to call
// more than once.
func (a *app) close() {
	if a.closeTerm != nil {
		_ = a.closeTerm()
		a.closeTerm = nil
	}
	if a.ownsDeck && a.deck != nil {
		if err := a.deck.Detach(); err != nil {
			a.logger.Warn("detaching deck", zap.Error(err))
		}
		a.deck = nil
		a.ownsDeck = false
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

// rangeArgs is cobra.RangeArgs reporting a usage error.
func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return wrapArgs(cobra.RangeArgs(lo, hi))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}
