package transition

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/cardtree/internal/memstore"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errUnexpectedPrompt = errors.New("unexpected prompt")

type pickCall struct {
	prompt  string
	options []string
}

// script answers prompts from fixed queues and records every question.
type script struct {
	picks  []int
	inputs []string

	pickCalls  []pickCall
	inputCalls []string
}

func (s *script) Pick(prompt string, options []string) (int, error) {
	s.pickCalls = append(s.pickCalls, pickCall{prompt: prompt, options: options})
	if len(s.picks) == 0 {
		return -1, fmt.Errorf("%w: pick %q %v", errUnexpectedPrompt, prompt, options)
	}
	idx := s.picks[0]
	s.picks = s.picks[1:]
	return idx, nil
}

func (s *script) Input(prompt string) (string, error) {
	s.inputCalls = append(s.inputCalls, prompt)
	if len(s.inputs) == 0 {
		return "", fmt.Errorf("%w: input %q", errUnexpectedPrompt, prompt)
	}
	in := s.inputs[0]
	s.inputs = s.inputs[1:]
	return in, nil
}

// world is a geography fixture: Capital is a class with the constrained
// pattern "capital of {}" (answers must be Cities); Country has no
// patterns of its own.
type world struct {
	store   *memstore.Store
	capital types.CardID
	country types.CardID
	city    types.CardID
	france  types.CardID
	paris   types.CardID
	capOf   types.AttributeID
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{store: memstore.New()}
	w.capital = w.create(t, types.Class{Name: "Capital"})
	w.country = w.create(t, types.Class{Name: "Country"})
	w.city = w.create(t, types.Class{Name: "City"})
	w.france = w.create(t, types.Instance{Name: "France", Class: w.country})
	w.paris = w.create(t, types.Instance{Name: "Paris", Class: w.city})

	var err error
	w.capOf, err = w.store.CreateAttribute("capital of {}", w.capital, w.city)
	require.NoError(t, err)
	return w
}

func (w *world) create(t *testing.T, ct types.CardType) types.CardID {
	t.Helper()
	id, err := w.store.CreateCard(ct, "geo")
	require.NoError(t, err)
	return id
}

func (w *world) countryUnderCapital(t *testing.T) {
	t.Helper()
	require.NoError(t, w.store.MutateType(w.country, types.Class{Name: "Country", ParentClass: w.capital}))
}

func (w *world) controller(t *testing.T, s *script) *Controller {
	return New(w.store, s, WithLogger(zaptest.NewLogger(t)))
}

func (w *world) typeOf(t *testing.T, id types.CardID) types.CardType {
	t.Helper()
	c, err := w.store.Load(id)
	require.NoError(t, err)
	return c.Type
}

func TestLegal(t *testing.T) {
	tests := []struct {
		op    Op
		legal []types.Kind
	}{
		{OpIntoInstance, []types.Kind{types.KindNormal, types.KindUnfinished, types.KindStatement, types.KindEvent}},
		{OpIntoClass, types.Kinds},
		{OpIntoStatement, types.Kinds},
		{OpIntoEvent, types.Kinds},
		{OpIntoAttribute, []types.Kind{types.KindNormal, types.KindUnfinished}},
		{OpIntoAnswer, types.Kinds},
		{OpSetParentClass, []types.Kind{types.KindClass}},
		{OpNewAttributePattern, []types.Kind{types.KindInstance}},
		{OpFillAttribute, []types.Kind{types.KindInstance}},
		{OpSetBackRef, []types.Kind{types.KindNormal, types.KindUnfinished, types.KindClass, types.KindAttribute}},
		{OpFinish, []types.Kind{types.KindUnfinished}},
		{OpNewDependency, types.Kinds},
		{OpNewDependent, types.Kinds},
	}
	require.Len(t, tests, len(Ops))
	for _, tt := range tests {
		for _, k := range types.Kinds {
			want := false
			for _, l := range tt.legal {
				want = want || l == k
			}
			assert.Equal(t, want, Legal(tt.op, k), "%s from %s", tt.op, k)
		}
	}
}

func TestIntoInstance(t *testing.T) {
	t.Run("existing class", func(t *testing.T) {
		w := newWorld(t)
		card := w.create(t, types.Normal{Front: "Spain", Back: types.TextBack("Madrid")})
		s := &script{picks: []int{1}}

		out, err := w.controller(t, s).IntoInstance(card)
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, out.Status)
		assert.Equal(t, types.Instance{Name: "Spain", Class: w.country}, w.typeOf(t, card))
		require.Len(t, s.pickCalls, 1)
		assert.Equal(t, []string{"Capital", "Country", "City", newClassOption}, s.pickCalls[0].options)
	})

	t.Run("new class in the card's category", func(t *testing.T) {
		w := newWorld(t)
		card, err := w.store.CreateCard(types.Statement{Front: "Rhine"}, "rivers")
		require.NoError(t, err)
		s := &script{picks: []int{3}, inputs: []string{"River"}}

		out, err := w.controller(t, s).IntoInstance(card)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status)

		inst := w.typeOf(t, card).(types.Instance)
		cls, err := w.store.Load(inst.Class)
		require.NoError(t, err)
		assert.Equal(t, types.Class{Name: "River"}, cls.Type)
		assert.Equal(t, "rivers", cls.Category)
	})

	t.Run("empty class name cancels", func(t *testing.T) {
		w := newWorld(t)
		card := w.create(t, types.Event{Front: "1789"})
		s := &script{picks: []int{3}, inputs: []string{"  "}}

		out, err := w.controller(t, s).IntoInstance(card)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, out.Status)
		assert.Equal(t, types.Event{Front: "1789"}, w.typeOf(t, card))

		classes, err := w.store.AllClasses()
		require.NoError(t, err)
		assert.Len(t, classes, 3)
	})

	t.Run("empty front asks for a name", func(t *testing.T) {
		w := newWorld(t)
		card := w.create(t, types.Unfinished{})
		s := &script{picks: []int{0}, inputs: []string{"Rome"}}

		out, err := w.controller(t, s).IntoInstance(card)
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, out.Status)
		assert.Equal(t, types.Instance{Name: "Rome", Class: w.capital}, w.typeOf(t, card))
	})

	t.Run("illegal source", func(t *testing.T) {
		w := newWorld(t)
		s := &script{}

		out, err := w.controller(t, s).IntoInstance(w.country)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
		assert.Contains(t, out.Message, "class card cannot be turned into an instance")
		assert.Empty(t, s.pickCalls)
	})
}

func TestIntoClassStatementEvent(t *testing.T) {
	w := newWorld(t)
	w.countryUnderCapital(t)
	normal := w.create(t, types.Normal{Front: "Mammal", Back: types.TextBack("warm blooded")})
	ctl := w.controller(t, &script{})

	out, err := ctl.IntoClass(normal)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Status)
	assert.Equal(t, types.Class{Name: "Mammal", Back: types.TextBack("warm blooded")}, w.typeOf(t, normal))

	out, err = ctl.IntoClass(w.country)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Status)
	assert.Equal(t, types.Class{Name: "Country"}, w.typeOf(t, w.country), "parent reset")

	out, err = ctl.IntoStatement(normal)
	require.NoError(t, err)
	assert.Equal(t, types.Statement{Front: "Mammal"}, out.Type)

	out, err = ctl.IntoEvent(normal)
	require.NoError(t, err)
	assert.Equal(t, types.Event{Front: "Mammal"}, w.typeOf(t, normal))

	attrCard := w.create(t, types.AttributeCard{Attribute: w.capOf, Back: types.CardBack(w.paris), Instance: w.france})
	out, err = ctl.IntoStatement(attrCard)
	require.NoError(t, err)
	assert.Equal(t, types.Statement{Front: "capital of France"}, w.typeOf(t, attrCard))
}

func TestIntoAttribute(t *testing.T) {
	t.Run("constrained answer", func(t *testing.T) {
		w := newWorld(t)
		w.countryUnderCapital(t)
		card := w.create(t, types.Normal{Front: "What is the capital of France?", Back: types.TextBack("Paris")})
		// France, then "capital of France", then Paris.
		s := &script{picks: []int{0, 0, 0}}

		out, err := w.controller(t, s).IntoAttribute(card)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status, out.Message)
		assert.Equal(t, types.AttributeCard{Attribute: w.capOf, Back: types.CardBack(w.paris), Instance: w.france}, w.typeOf(t, card))

		require.Len(t, s.pickCalls, 3)
		assert.Equal(t, []string{"France", "Paris", newInstanceOption}, s.pickCalls[0].options)
		assert.Equal(t, []string{"capital of France"}, s.pickCalls[1].options)
		assert.Equal(t, []string{"Paris"}, s.pickCalls[2].options)
		assert.Empty(t, s.inputCalls, "constrained answers are never typed")
	})

	t.Run("no patterns rejects", func(t *testing.T) {
		w := newWorld(t)
		card := w.create(t, types.Normal{Front: "q"})
		s := &script{picks: []int{0}}

		out, err := w.controller(t, s).IntoAttribute(card)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
		assert.Contains(t, out.Message, "no attribute patterns are available for \"France\"")
		assert.Equal(t, types.Normal{Front: "q"}, w.typeOf(t, card))
	})

	t.Run("free text keeps current answer", func(t *testing.T) {
		w := newWorld(t)
		anthem, err := w.store.CreateAttribute("anthem of {}", w.country, types.NoCard)
		require.NoError(t, err)
		card := w.create(t, types.Normal{Front: "anthem?", Back: types.TextBack("La Marseillaise")})
		s := &script{picks: []int{0, 0}, inputs: []string{""}}

		out, err := w.controller(t, s).IntoAttribute(card)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status)
		assert.Equal(t, types.AttributeCard{Attribute: anthem, Back: types.TextBack("La Marseillaise"), Instance: w.france}, w.typeOf(t, card))
		assert.Equal(t, []string{"anthem of France [La Marseillaise]"}, s.inputCalls)
	})

	t.Run("free text without current answer cancels on empty", func(t *testing.T) {
		w := newWorld(t)
		_, err := w.store.CreateAttribute("anthem of {}", w.country, types.NoCard)
		require.NoError(t, err)
		card := w.create(t, types.Unfinished{Front: "anthem?"})
		s := &script{picks: []int{0, 0}, inputs: []string{""}}

		out, err := w.controller(t, s).IntoAttribute(card)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, out.Status)
		assert.Equal(t, types.Unfinished{Front: "anthem?"}, w.typeOf(t, card))
	})

	t.Run("new instance", func(t *testing.T) {
		w := newWorld(t)
		w.countryUnderCapital(t)
		card := w.create(t, types.Unfinished{Front: "capital of Italy?"})
		rome := w.create(t, types.Instance{Name: "Rome", Class: w.city})
		// "+ new instance", class Country, pattern, Rome.
		s := &script{picks: []int{3, 1, 0, 1}, inputs: []string{"Italy"}}

		out, err := w.controller(t, s).IntoAttribute(card)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status, out.Message)

		ac := w.typeOf(t, card).(types.AttributeCard)
		assert.Equal(t, types.CardBack(rome), ac.Back)
		italy, err := w.store.Load(ac.Instance)
		require.NoError(t, err)
		assert.Equal(t, types.Instance{Name: "Italy", Class: w.country}, italy.Type)
	})

	t.Run("no candidates rejects", func(t *testing.T) {
		w := newWorld(t)
		w.countryUnderCapital(t)
		require.NoError(t, w.store.MutateType(w.paris, types.Statement{Front: "Paris"}))
		card := w.create(t, types.Normal{Front: "q"})
		s := &script{picks: []int{0, 0}}

		out, err := w.controller(t, s).IntoAttribute(card)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
		assert.Contains(t, out.Message, "no instance of the required class")
	})

	t.Run("illegal source", func(t *testing.T) {
		w := newWorld(t)
		stmt := w.create(t, types.Statement{Front: "s"})

		out, err := w.controller(t, &script{}).IntoAttribute(stmt)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
	})
}

func TestIntoAnswer(t *testing.T) {
	t.Run("zero instance dependencies rejects", func(t *testing.T) {
		w := newWorld(t)
		card := w.create(t, types.Normal{Front: "Paris", Back: types.CardBack("x")})
		s := &script{}

		out, err := w.controller(t, s).IntoAnswer(card)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
		assert.Equal(t, "the card does not depend on any instance", out.Message)
		assert.Empty(t, s.pickCalls)
	})

	t.Run("one instance dependency is used implicitly", func(t *testing.T) {
		w := newWorld(t)
		w.countryUnderCapital(t)
		card := w.create(t, types.Normal{Front: "Paris", Back: types.CardBack(w.paris)})
		require.NoError(t, w.store.AddDependency(w.france, card))
		s := &script{picks: []int{0}}

		out, err := w.controller(t, s).IntoAnswer(card)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status, out.Message)
		assert.Equal(t, types.AttributeCard{Attribute: w.capOf, Back: types.CardBack(w.paris), Instance: w.france}, w.typeOf(t, card))
		require.Len(t, s.pickCalls, 1)
		assert.Equal(t, "Attribute", s.pickCalls[0].prompt)
	})

	t.Run("two instance dependencies need a choice", func(t *testing.T) {
		w := newWorld(t)
		w.countryUnderCapital(t)
		spain := w.create(t, types.Instance{Name: "Spain", Class: w.country})
		card := w.create(t, types.Normal{Front: "Paris", Back: types.CardBack(w.paris)})
		require.NoError(t, w.store.AddDependency(spain, card))
		require.NoError(t, w.store.AddDependency(w.france, card))
		s := &script{picks: []int{1, 0}}

		out, err := w.controller(t, s).IntoAnswer(card)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status, out.Message)
		require.Len(t, s.pickCalls, 2)
		assert.Equal(t, []string{"Spain", "France"}, s.pickCalls[0].options)
		assert.Equal(t, w.france, w.typeOf(t, card).(types.AttributeCard).Instance)
	})

	t.Run("text answer to constrained pattern rejects", func(t *testing.T) {
		w := newWorld(t)
		w.countryUnderCapital(t)
		card := w.create(t, types.Normal{Front: "capital?", Back: types.TextBack("Paris")})
		require.NoError(t, w.store.AddDependency(w.france, card))

		out, err := w.controller(t, &script{picks: []int{0}}).IntoAnswer(card)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
		assert.Contains(t, out.Message, "must be a card, not text")
		assert.Equal(t, types.Normal{Front: "capital?", Back: types.TextBack("Paris")}, w.typeOf(t, card))
	})

	t.Run("card without an answer rejects", func(t *testing.T) {
		w := newWorld(t)
		card := w.create(t, types.Statement{Front: "Paris"})
		require.NoError(t, w.store.AddDependency(w.france, card))

		out, err := w.controller(t, &script{}).IntoAnswer(card)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
	})
}

func TestSetParentClass(t *testing.T) {
	t.Run("self is a no-op", func(t *testing.T) {
		w := newWorld(t)
		ctl := w.controller(t, &script{})

		before, err := ctl.Hierarchy().AncestorChain(w.country)
		require.NoError(t, err)
		out, err := ctl.SetParentClass(w.country, w.country)
		require.NoError(t, err)
		assert.Equal(t, StatusUnchanged, out.Status)
		after, err := ctl.Hierarchy().AncestorChain(w.country)
		require.NoError(t, err)

		assert.Equal(t, []types.CardID{w.country}, before)
		assert.Equal(t, before, after)
	})

	t.Run("attach and detach", func(t *testing.T) {
		w := newWorld(t)
		ctl := w.controller(t, &script{})

		out, err := ctl.SetParentClass(w.country, w.capital)
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, out.Status)
		chain, err := ctl.Hierarchy().AncestorChain(w.country)
		require.NoError(t, err)
		assert.Equal(t, []types.CardID{w.country, w.capital}, chain)

		out, err = ctl.SetParentClass(w.country, w.capital)
		require.NoError(t, err)
		assert.Equal(t, StatusUnchanged, out.Status)

		out, err = ctl.SetParentClass(w.country, types.NoCard)
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, out.Status)
		assert.Equal(t, types.Class{Name: "Country"}, w.typeOf(t, w.country))
	})

	t.Run("cycle through another class is allowed", func(t *testing.T) {
		w := newWorld(t)
		w.countryUnderCapital(t)
		ctl := w.controller(t, &script{})

		out, err := ctl.SetParentClass(w.capital, w.country)
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, out.Status)
		chain, err := ctl.Hierarchy().AncestorChain(w.capital)
		require.NoError(t, err)
		assert.Equal(t, []types.CardID{w.capital, w.country}, chain)
	})

	t.Run("non-class parent rejects", func(t *testing.T) {
		w := newWorld(t)
		out, err := w.controller(t, &script{}).SetParentClass(w.country, w.france)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
	})

	t.Run("non-class card rejects", func(t *testing.T) {
		w := newWorld(t)
		out, err := w.controller(t, &script{}).SetParentClass(w.france, w.country)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
	})

	t.Run("missing parent is fatal", func(t *testing.T) {
		w := newWorld(t)
		_, err := w.controller(t, &script{}).SetParentClass(w.country, "missing")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("choose", func(t *testing.T) {
		w := newWorld(t)
		s := &script{picks: []int{1}}

		out, err := w.controller(t, s).ChooseParentClass(w.country)
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, out.Status)
		assert.Equal(t, []string{noParentOption, "Capital", "City"}, s.pickCalls[0].options)
		assert.Equal(t, types.Class{Name: "Country", ParentClass: w.capital}, w.typeOf(t, w.country))
	})
}

func TestNewAttributePattern(t *testing.T) {
	t.Run("on an ancestor with a back type", func(t *testing.T) {
		w := newWorld(t)
		w.countryUnderCapital(t)
		// Capital (chain index 1), then City (options: any answer, Capital, Country, City).
		s := &script{picks: []int{1, 3}, inputs: []string{"largest city of {}"}}

		out, err := w.controller(t, s).NewAttributePattern(w.france)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status, out.Message)
		assert.Equal(t, []string{"Country", "Capital"}, s.pickCalls[0].options)

		attr, err := w.store.LoadAttribute(out.Attribute)
		require.NoError(t, err)
		assert.Equal(t, &types.Attribute{ID: out.Attribute, Pattern: "largest city of {}", Class: w.capital, BackType: w.city}, attr)
		assert.Equal(t, types.Instance{Name: "France", Class: w.country}, w.typeOf(t, w.france), "card keeps its type")
	})

	t.Run("root class skips the class choice", func(t *testing.T) {
		w := newWorld(t)
		s := &script{picks: []int{0}, inputs: []string{"anthem of {}"}}

		out, err := w.controller(t, s).NewAttributePattern(w.france)
		require.NoError(t, err)
		require.Equal(t, StatusApplied, out.Status)
		require.Len(t, s.pickCalls, 1)

		attrs, err := w.store.AttributesOfClass(w.country)
		require.NoError(t, err)
		require.Len(t, attrs, 1)
		assert.False(t, attrs[0].Constrained())
	})

	t.Run("empty pattern cancels", func(t *testing.T) {
		w := newWorld(t)
		out, err := w.controller(t, &script{inputs: []string{""}}).NewAttributePattern(w.france)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, out.Status)

		attrs, err := w.store.AttributesOfClass(w.country)
		require.NoError(t, err)
		assert.Empty(t, attrs)
	})

	t.Run("non-instance rejects", func(t *testing.T) {
		w := newWorld(t)
		out, err := w.controller(t, &script{}).NewAttributePattern(w.country)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, out.Status)
	})
}

// failingStore rejects every type mutation.
type failingStore struct {
	*memstore.Store
	err error
}

func (f failingStore) MutateType(types.CardID, types.CardType) error { return f.err }

func TestStoreFailuresAreFatal(t *testing.T) {
	w := newWorld(t)
	boom := errors.New("disk full")
	ctl := New(failingStore{Store: w.store, err: boom}, &script{})

	_, err := ctl.IntoStatement(w.france)
	assert.ErrorIs(t, err, boom)

	_, err = ctl.IntoEvent("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestFrontAndBackOfUntypedCard(t *testing.T) {
	w := newWorld(t)
	_, err := w.controller(t, &script{}).Front(&types.Card{ID: "x"})
	assert.ErrorIs(t, err, types.ErrInvalidData)
	assert.True(t, BackOf(nil).IsEmpty())
}
