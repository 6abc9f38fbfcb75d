package types

// TypeMutator replaces the payload of an existing card.
type TypeMutator interface {
	// MutateType persists t as the card's new type.
	// Returns ErrNotFound if no card exists with that id.
	MutateType(id CardID, t CardType) error
}

// CardStore provides card persistence and id issuance.
type CardStore interface {
	TypeMutator

	// Load returns the card with the given id.
	// Returns ErrNotFound if no card exists with that id.
	Load(id CardID) (*Card, error)

	// Exists reports whether a card with the given id exists.
	Exists(id CardID) (bool, error)

	// AllCards returns every card. Order is unspecified.
	AllCards() ([]*Card, error)

	// AllClasses returns every card whose type is Class.
	AllClasses() ([]*Card, error)

	// CreateCard stores a new card and returns its freshly issued id.
	CreateCard(t CardType, category string) (CardID, error)
}

// AttributeStore provides attribute pattern persistence. Patterns live
// independently of any AttributeCard derived from them.
type AttributeStore interface {
	// CreateAttribute stores a new pattern and returns its id.
	CreateAttribute(pattern string, class CardID, backType CardID) (AttributeID, error)

	// LoadAttribute returns the pattern with the given id.
	// Returns ErrNotFound if no pattern exists with that id.
	LoadAttribute(id AttributeID) (*Attribute, error)

	// AttributesOfClass returns the patterns declared exactly on class.
	AttributesOfClass(class CardID) ([]*Attribute, error)
}

// DependencyStore provides dependency edges. The dependents view is derived
// from the dependency edges and must reflect every AddDependency.
type DependencyStore interface {
	// AddDependency records that to depends on from. Adding an existing edge
	// has no further effect.
	AddDependency(from, to CardID) error

	// DependenciesOf returns the cards id depends on.
	DependenciesOf(id CardID) ([]CardID, error)

	// CachedDependentsOf returns the cards that depend on id.
	CachedDependentsOf(id CardID) ([]CardID, error)
}

// Store is the full external store contract consumed by the card core.
type Store interface {
	CardStore
	AttributeStore
	DependencyStore
}
