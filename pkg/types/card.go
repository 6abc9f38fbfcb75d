package types

// CardID identifies a card. IDs are issued by the store (UUID v7).
type CardID string

// NoCard is the zero CardID, used where an optional card reference is absent
// (a class without a parent, an attribute without a back type).
const NoCard CardID = ""

// Kind names a CardType variant. Kinds are the states of the type
// transition state machine.
type Kind string

// Card kinds.
const (
	KindNormal     Kind = "normal"
	KindUnfinished Kind = "unfinished"
	KindInstance   Kind = "instance"
	KindClass      Kind = "class"
	KindAttribute  Kind = "attribute"
	KindStatement  Kind = "statement"
	KindEvent      Kind = "event"
)

// Kinds lists every card kind in declaration order.
var Kinds = []Kind{
	KindNormal,
	KindUnfinished,
	KindInstance,
	KindClass,
	KindAttribute,
	KindStatement,
	KindEvent,
}

// IsValidKind reports whether k names a CardType variant.
func IsValidKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Card is a learning item. ID and Category never change once the store has
// created the card; only Type is replaced, through IntoType.
type Card struct {
	ID       CardID
	Type     CardType
	Category string
}

// Kind returns the kind of the card's current type.
func (c *Card) Kind() Kind {
	return c.Type.Kind()
}

// IntoType replaces the card's payload with t and persists it through the
// store. ID and Category are left untouched. No invariant validation happens
// here; callers (the transition controller) validate before retyping.
// Errors from the store are returned unchanged and leave c unmodified.
func (c *Card) IntoType(store TypeMutator, t CardType) error {
	if err := store.MutateType(c.ID, t); err != nil {
		return err
	}
	c.Type = t
	return nil
}
