package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/cardtree/internal/memstore"
	"github.com/mesh-intelligence/cardtree/internal/paths"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// script answers prompts from fixed queues.
type script struct {
	picks  []int
	inputs []string
}

func (s *script) Pick(prompt string, options []string) (int, error) {
	if len(s.picks) == 0 {
		return -1, errors.New("unexpected pick: " + prompt)
	}
	idx := s.picks[0]
	s.picks = s.picks[1:]
	return idx, nil
}

func (s *script) Input(prompt string) (string, error) {
	if len(s.inputs) == 0 {
		return "", errors.New("unexpected input: " + prompt)
	}
	in := s.inputs[0]
	s.inputs = s.inputs[1:]
	return in, nil
}

func execute(t *testing.T, opts []Option, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	a.close()
	return out.String(), err
}

func mustRun(t *testing.T, opts []Option, args ...string) string {
	t.Helper()
	out, err := execute(t, opts, args...)
	require.NoError(t, err, out)
	return out
}

func addCard(t *testing.T, opts []Option, args ...string) string {
	t.Helper()
	return strings.TrimSpace(mustRun(t, opts, append([]string{"card", "add"}, args...)...))
}

func TestVersion(t *testing.T) {
	out := mustRun(t, []Option{WithLogger(zap.NewNop())}, "version")
	assert.Contains(t, out, "deck v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestGeographySession(t *testing.T) {
	p := &script{}
	opts := []Option{WithDeck(memstore.New()), WithPrompter(p), WithLogger(zap.NewNop())}

	country := addCard(t, opts, "--kind", "class", "--front", "Country", "--category", "geo")
	capital := addCard(t, opts, "--kind", "class", "--front", "Capital")
	city := addCard(t, opts, "--kind", "class", "--front", "City")
	france := addCard(t, opts, "--kind", "instance", "--front", "France", "--class", country)
	paris := addCard(t, opts, "--kind", "instance", "--front", "Paris", "--class", city)

	out := mustRun(t, opts, "parent", country, capital)
	assert.Contains(t, out, "is now class")

	// Declare on Capital, answers must be Cities.
	p.picks = []int{1, 3}
	p.inputs = []string{"capital of {}"}
	out = mustRun(t, opts, "pattern", "new", france)
	assert.Contains(t, out, `created pattern "capital of {}"`)

	out = mustRun(t, opts, "pattern", "list", country, "--instance", france)
	assert.Contains(t, out, "capital of France")
	out = mustRun(t, opts, "pattern", "list", country, "--own")
	assert.Contains(t, out, "no attribute patterns")

	card := addCard(t, opts, "--front", "What is the capital of France?", "--back", "Paris")
	p.picks = []int{0, 0, 0}
	out = mustRun(t, opts, "into", "attribute", card)
	assert.Contains(t, out, "is now attribute")

	out = mustRun(t, opts, "card", "show", card)
	assert.Contains(t, out, "capital of France")
	assert.Contains(t, out, paris)

	out = mustRun(t, opts, "--json", "ancestors", country)
	var chain []cardView
	require.NoError(t, json.Unmarshal([]byte(out), &chain))
	require.Len(t, chain, 2)
	assert.Equal(t, types.CardID(country), chain[0].ID)
	assert.Equal(t, types.CardID(capital), chain[1].ID)
	ct, err := types.DecodeType(chain[0].Kind, chain[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, types.Class{Name: "Country", ParentClass: types.CardID(capital)}, ct)

	out = mustRun(t, opts, "subclass", capital)
	assert.Contains(t, out, france)
	assert.NotContains(t, out, paris)

	mustRun(t, opts, "depend", france, card)
	mustRun(t, opts, "depend", france, card)
	out = mustRun(t, opts, "--json", "deps", card)
	var deps depsView
	require.NoError(t, json.Unmarshal([]byte(out), &deps))
	require.Len(t, deps.Dependencies, 1)
	assert.Equal(t, types.CardID(france), deps.Dependencies[0].ID)
	assert.Empty(t, deps.Dependents)

	out = mustRun(t, opts, "--json", "card", "list", "--kind", "instance")
	var instances []cardView
	require.NoError(t, json.Unmarshal([]byte(out), &instances))
	require.Len(t, instances, 2)
	ct, err = types.DecodeType(instances[0].Kind, instances[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, types.Instance{Name: "France", Class: types.CardID(country)}, ct)
}

func TestCardActions(t *testing.T) {
	p := &script{}
	d := memstore.New()
	opts := []Option{WithDeck(d), WithPrompter(p), WithLogger(zap.NewNop())}

	country := addCard(t, opts, "--kind", "class", "--front", "Country", "--category", "geo")
	france := addCard(t, opts, "--kind", "instance", "--front", "France", "--class", country, "--category", "geo")

	// Country is the only class in the chain; the pattern takes any answer.
	p.picks = []int{0}
	p.inputs = []string{"anthem of {}"}
	mustRun(t, opts, "pattern", "new", france)

	p.picks = []int{0}
	p.inputs = []string{"La Marseillaise"}
	out := mustRun(t, opts, "--json", "fill", france)
	var filled outcomeView
	require.NoError(t, json.Unmarshal([]byte(out), &filled))
	assert.Equal(t, "applied", filled.Status)
	require.NotEmpty(t, filled.Created)
	out = mustRun(t, opts, "card", "show", string(filled.Created))
	assert.Contains(t, out, "anthem of France")
	assert.Contains(t, out, "La Marseillaise")

	unfinished := addCard(t, opts, "--kind", "unfinished", "--front", "Currency of France")
	out = mustRun(t, opts, "finish", unfinished, "--answer", "Euro")
	assert.Contains(t, out, "is now normal")

	question := addCard(t, opts, "--front", "Country whose capital is Paris", "--back", "France")
	out = mustRun(t, opts, "backref", question, france)
	assert.Contains(t, out, "is now normal")
	c, err := d.Load(types.CardID(question))
	require.NoError(t, err)
	assert.Equal(t, types.CardBack(types.CardID(france)), c.Type.(types.Normal).Back)

	p.inputs = []string{"Europe", ""}
	out = mustRun(t, opts, "--json", "new-dependency", france)
	var dep outcomeView
	require.NoError(t, json.Unmarshal([]byte(out), &dep))
	require.NotEmpty(t, dep.Created)
	deps, err := d.DependenciesOf(types.CardID(france))
	require.NoError(t, err)
	assert.Equal(t, []types.CardID{dep.Created}, deps)

	p.inputs = []string{"Capital of France?", "Paris"}
	out = mustRun(t, opts, "new-dependent", france)
	assert.Contains(t, out, "depending on")
	dependents, err := d.CachedDependentsOf(types.CardID(france))
	require.NoError(t, err)
	assert.Len(t, dependents, 1)
}

func TestRejectionsExitZero(t *testing.T) {
	opts := []Option{WithDeck(memstore.New()), WithPrompter(&script{}), WithLogger(zap.NewNop())}
	class := addCard(t, opts, "--kind", "class", "--front", "Country")
	card := addCard(t, opts, "--front", "Paris", "--back", "France")

	out := mustRun(t, opts, "into", "instance", class)
	assert.Contains(t, out, "a class card cannot be turned into an instance")

	out = mustRun(t, opts, "into", "answer", card)
	assert.Contains(t, out, "does not depend on any instance")

	out = mustRun(t, opts, "parent", class, class)
	assert.Contains(t, out, "unchanged")

	out = mustRun(t, opts, "--json", "into", "statement", card)
	var v outcomeView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "applied", v.Status)
	assert.Equal(t, types.KindStatement, v.Kind)
}

func TestUserErrors(t *testing.T) {
	opts := []Option{WithDeck(memstore.New()), WithPrompter(&script{}), WithLogger(zap.NewNop())}
	stmt := addCard(t, opts, "--kind", "statement", "--front", "s")

	tests := []struct {
		name string
		args []string
	}{
		{"missing card", []string{"card", "show", "missing"}},
		{"missing front", []string{"card", "add", "--kind", "normal"}},
		{"instance of non-class", []string{"card", "add", "--kind", "instance", "--front", "x", "--class", stmt}},
		{"attribute kind", []string{"card", "add", "--kind", "attribute", "--front", "x"}},
		{"wrong arg count", []string{"depend", stmt}},
		{"bad flag", []string{"card", "list", "--nope"}},
		{"ancestors of non-class", []string{"ancestors", stmt}},
		{"snapshot on memory deck", []string{"export", t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, opts, tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(types.ErrNotFound))
	assert.Equal(t, exitUserError, exitCode(types.ErrBackendUnknown))
	assert.Equal(t, exitSysError, exitCode(errors.New("disk I/O error")))
}

func TestInitAndSQLiteDeck(t *testing.T) {
	t.Setenv("DECK_BACKEND", "")
	t.Setenv("DECK_LOG_LEVEL", "")
	t.Setenv(paths.EnvDataDir, "")
	configDir := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "db")
	opts := []Option{WithPrompter(&script{}), WithLogger(zap.NewNop())}

	out := mustRun(t, opts, "init", "--config-dir", configDir, "--data-dir", dataDir)
	assert.Contains(t, out, "Deck initialized successfully")
	_, err := os.Stat(filepath.Join(configDir, paths.ConfigFileName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, "deck.db"))
	require.NoError(t, err)

	cfg, err := loadConfig(configDir, "")
	require.NoError(t, err)
	assert.Equal(t, types.Config{Backend: types.BackendSQLite, DataDir: dataDir, LogLevel: "info"}, cfg)

	// Later commands find the data directory through config.yaml.
	id := addCard(t, opts, "--config-dir", configDir, "--front", "2+2", "--back", "4")
	out = mustRun(t, opts, "--config-dir", configDir, "card", "list")
	assert.Contains(t, out, id)

	snap := t.TempDir()
	mustRun(t, opts, "--config-dir", configDir, "export", snap)
	_, err = os.Stat(filepath.Join(snap, "cards.jsonl"))
	require.NoError(t, err)

	otherData := t.TempDir()
	mustRun(t, opts, "--config-dir", configDir, "--data-dir", otherData, "import", snap)
	out = mustRun(t, opts, "--config-dir", configDir, "--data-dir", otherData, "card", "show", id)
	assert.Contains(t, out, "2+2")
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv("DECK_BACKEND", "")
	t.Setenv("DECK_LOG_LEVEL", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, paths.ConfigFileName), []byte("backend: postgres\n"), 0o644))

	_, err := loadConfig(dir, t.TempDir())
	assert.ErrorIs(t, err, types.ErrBackendUnknown)

	t.Setenv("DECK_BACKEND", "memory")
	cfg, err := loadConfig(dir, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, types.BackendMemory, cfg.Backend)
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		line    string
		want    int
		wantErr bool
		cancel  bool
	}{
		{"1", 0, false, false},
		{" 3 ", 2, false, false},
		{"", -1, true, true},
		{"0", -1, true, false},
		{"4", -1, true, false},
		{"two", -1, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseChoice(tt.line, 3)
			assert.Equal(t, tt.want, got)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.cancel, errors.Is(err, types.ErrCancelled))
		})
	}
}
