package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

func TestNewDependencyAndDependent(t *testing.T) {
	t.Run("dependency without answer is unfinished", func(t *testing.T) {
		w := newWorld(t)
		out, err := w.controller(t, &script{inputs: []string{"Europe", ""}}).NewDependency(w.france)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status, out.Message)

		created, err := w.store.Load(out.Created)
		require.NoError(t, err)
		assert.Equal(t, types.Unfinished{Front: "Europe"}, created.Type)
		assert.Equal(t, "geo", created.Category)

		deps, err := w.store.DependenciesOf(w.france)
		require.NoError(t, err)
		assert.Equal(t, []types.CardID{out.Created}, deps)
	})

	t.Run("dependent with answer is normal", func(t *testing.T) {
		w := newWorld(t)
		out, err := w.controller(t, &script{inputs: []string{"Capital of France?", "Paris"}}).NewDependent(w.france)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status, out.Message)
		assert.Equal(t, types.Normal{Front: "Capital of France?", Back: types.TextBack("Paris")}, w.typeOf(t, out.Created))

		deps, err := w.store.DependenciesOf(out.Created)
		require.NoError(t, err)
		assert.Equal(t, []types.CardID{w.france}, deps)
		dependents, err := w.store.CachedDependentsOf(w.france)
		require.NoError(t, err)
		assert.Equal(t, []types.CardID{out.Created}, dependents)
	})

	t.Run("empty front cancels", func(t *testing.T) {
		w := newWorld(t)
		out, err := w.controller(t, &script{inputs: []string{""}}).NewDependency(w.france)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, out.Status)

		deps, err := w.store.DependenciesOf(w.france)
		require.NoError(t, err)
		assert.Empty(t, deps)
	})

	t.Run("missing card is fatal", func(t *testing.T) {
		w := newWorld(t)
		_, err := w.controller(t, &script{}).NewDependent("missing")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
