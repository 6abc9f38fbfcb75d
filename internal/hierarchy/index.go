// Package hierarchy resolves parent/child relations between Class cards and
// subclass membership of Instance cards.
//
// Every query builds a fresh Index from the store's current card set; the
// store has no "children of" query and stays the single source of truth.
// Walks track visited ids, so cyclic parent chains terminate.
package hierarchy

import "github.com/mesh-intelligence/cardtree/pkg/types"

// Index is a snapshot of the class forest over a set of cards, keyed by id.
type Index struct {
	parent    map[types.CardID]types.CardID
	children  map[types.CardID][]types.CardID
	instances map[types.CardID][]types.CardID
	names     map[types.CardID]string
}

// NewIndex builds the children-by-parent and instances-by-class indexes for
// cards. Non-class, non-instance cards are ignored.
func NewIndex(cards []*types.Card) *Index {
	ix := &Index{
		parent:    make(map[types.CardID]types.CardID),
		children:  make(map[types.CardID][]types.CardID),
		instances: make(map[types.CardID][]types.CardID),
		names:     make(map[types.CardID]string),
	}
	for _, c := range cards {
		switch t := c.Type.(type) {
		case types.Class:
			ix.parent[c.ID] = t.ParentClass
			ix.names[c.ID] = t.Name
			if t.HasParent() {
				ix.children[t.ParentClass] = append(ix.children[t.ParentClass], c.ID)
			}
		case types.Instance:
			ix.instances[t.Class] = append(ix.instances[t.Class], c.ID)
		case types.Normal, types.Unfinished, types.AttributeCard, types.Statement, types.Event:
		}
	}
	return ix
}

// IsClass reports whether id is a Class card in the snapshot.
func (ix *Index) IsClass(id types.CardID) bool {
	_, ok := ix.parent[id]
	return ok
}

// Name returns the name of a class, or "" if id is not a class.
func (ix *Index) Name(id types.CardID) string {
	return ix.names[id]
}

// Ancestors returns class followed by its parent, grandparent and so on.
// The walk stops at a root, at a parent that is no longer a class, or at the
// first repeated id.
func (ix *Index) Ancestors(class types.CardID) []types.CardID {
	if !ix.IsClass(class) {
		return nil
	}
	chain := []types.CardID{class}
	seen := map[types.CardID]bool{class: true}
	for cur := ix.parent[class]; cur != types.NoCard; cur = ix.parent[cur] {
		if seen[cur] || !ix.IsClass(cur) {
			break
		}
		seen[cur] = true
		chain = append(chain, cur)
	}
	return chain
}

// Descendants returns class and every class below it, breadth first. Each
// id appears once.
func (ix *Index) Descendants(class types.CardID) []types.CardID {
	if !ix.IsClass(class) {
		return nil
	}
	out := []types.CardID{class}
	seen := map[types.CardID]bool{class: true}
	for i := 0; i < len(out); i++ {
		for _, child := range ix.children[out[i]] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
		}
	}
	return out
}

// SubclassCards returns every Instance whose class is class or one of its
// descendants.
func (ix *Index) SubclassCards(class types.CardID) []types.CardID {
	var out []types.CardID
	for _, c := range ix.Descendants(class) {
		out = append(out, ix.instances[c]...)
	}
	return out
}

// IsSubclassOf reports whether class equals ancestor or descends from it.
func (ix *Index) IsSubclassOf(class, ancestor types.CardID) bool {
	for _, c := range ix.Ancestors(class) {
		if c == ancestor {
			return true
		}
	}
	return false
}
