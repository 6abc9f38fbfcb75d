package types

// CardType is the payload of a card.
//
//sumtype:decl
type CardType interface {
	// Kind returns the variant name.
	Kind() Kind
	isCardType()
}

// Normal is a plain question and answer card.
type Normal struct {
	Front string   `json:"front"`
	Back  BackSide `json:"back"`
}

// Unfinished is a card whose answer has not been written yet.
type Unfinished struct {
	Front string `json:"front"`
}

// Instance is a specific member of a class. Class must reference a Class card.
type Instance struct {
	Name  string `json:"name"`
	Class CardID `json:"class"`
}

// Class is a category of instances. ParentClass is NoCard for a root class
// and must never equal the card's own id.
type Class struct {
	Name        string   `json:"name"`
	Back        BackSide `json:"back"`
	ParentClass CardID   `json:"parent_class,omitempty"`
	IsEvent     bool     `json:"is_event"`
}

// HasParent reports whether the class has a parent class.
func (c Class) HasParent() bool {
	return c.ParentClass != NoCard
}

// AttributeCard answers an attribute pattern for one instance. Instance must
// reference an Instance whose class equals or descends from the attribute's
// class.
type AttributeCard struct {
	Attribute AttributeID `json:"attribute"`
	Back      BackSide    `json:"back"`
	Instance  CardID      `json:"instance"`
}

// Statement is a fact with no answer side.
type Statement struct {
	Front string `json:"front"`
}

// Event is something that happened, reviewed by its front alone.
type Event struct {
	Front string `json:"front"`
}

func (Normal) Kind() Kind        { return KindNormal }
func (Unfinished) Kind() Kind    { return KindUnfinished }
func (Instance) Kind() Kind      { return KindInstance }
func (Class) Kind() Kind         { return KindClass }
func (AttributeCard) Kind() Kind { return KindAttribute }
func (Statement) Kind() Kind     { return KindStatement }
func (Event) Kind() Kind         { return KindEvent }

func (Normal) isCardType()        {}
func (Unfinished) isCardType()    {}
func (Instance) isCardType()      {}
func (Class) isCardType()         {}
func (AttributeCard) isCardType() {}
func (Statement) isCardType()     {}
func (Event) isCardType()         {}
