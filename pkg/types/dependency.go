package types

// Dependency is a directed prerequisite edge: To depends on From.
// Edges are many-to-many and may form cycles; the store keeps at most one
// edge per (From, To) pair.
type Dependency struct {
	From CardID `json:"from"`
	To   CardID `json:"to"`
}
