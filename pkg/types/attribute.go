package types

import "strings"

// AttributeID identifies an attribute pattern. IDs are issued by the store.
type AttributeID string

// PatternPlaceholder marks where the instance name goes in a pattern.
const PatternPlaceholder = "{}"

// Attribute is a reusable question template declared on a class, for example
// "capital of {}" on class Country. BackType, when set, forces every card
// answer to be an Instance of that class or one of its subclasses, and
// forbids free-text answers.
type Attribute struct {
	ID       AttributeID `json:"id"`
	Pattern  string      `json:"pattern"`
	Class    CardID      `json:"class"`
	BackType CardID      `json:"back_type,omitempty"`
}

// Constrained reports whether the attribute restricts its answers to a class.
func (a *Attribute) Constrained() bool {
	return a.BackType != NoCard
}

// Question renders the pattern for the named instance. Every placeholder is
// replaced; a pattern without one is returned with the name appended.
func (a *Attribute) Question(instanceName string) string {
	if !strings.Contains(a.Pattern, PatternPlaceholder) {
		return a.Pattern + " " + instanceName
	}
	return strings.ReplaceAll(a.Pattern, PatternPlaceholder, instanceName)
}
