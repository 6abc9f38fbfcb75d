// Package transition validates and performs conversions of a card from one
// CardType variant to another.
//
// Every operation takes the card id explicitly and returns an Outcome. User
// cancellations and failed preconditions come back as Cancelled or Rejected
// outcomes with a notice and leave the card unchanged; only store failures
// and unresolvable ids are returned as errors. Questions to the user go
// through an injected Prompter, so the controller runs without a terminal.
package transition

import (
	"slices"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// Op names a transition.
type Op string

// Transitions.
const (
	OpIntoInstance        Op = "into-instance"
	OpIntoClass           Op = "into-class"
	OpIntoStatement       Op = "into-statement"
	OpIntoEvent           Op = "into-event"
	OpIntoAttribute       Op = "into-attribute"
	OpIntoAnswer          Op = "into-answer"
	OpSetParentClass      Op = "set-parent-class"
	OpNewAttributePattern Op = "new-attribute-pattern"
	OpFillAttribute       Op = "fill-attribute"
	OpSetBackRef          Op = "set-back-ref"
	OpFinish              Op = "finish"
	OpNewDependency       Op = "new-dependency"
	OpNewDependent        Op = "new-dependent"
)

// Ops lists every transition.
var Ops = []Op{
	OpIntoInstance,
	OpIntoClass,
	OpIntoStatement,
	OpIntoEvent,
	OpIntoAttribute,
	OpIntoAnswer,
	OpSetParentClass,
	OpNewAttributePattern,
	OpFillAttribute,
	OpSetBackRef,
	OpFinish,
	OpNewDependency,
	OpNewDependent,
}

// legalSources maps each transition to the kinds it may start from.
var legalSources = map[Op][]types.Kind{
	OpIntoInstance:        {types.KindNormal, types.KindUnfinished, types.KindStatement, types.KindEvent},
	OpIntoClass:           types.Kinds,
	OpIntoStatement:       types.Kinds,
	OpIntoEvent:           types.Kinds,
	OpIntoAttribute:       {types.KindNormal, types.KindUnfinished},
	OpIntoAnswer:          types.Kinds,
	OpSetParentClass:      {types.KindClass},
	OpNewAttributePattern: {types.KindInstance},
	OpFillAttribute:       {types.KindInstance},
	OpSetBackRef:          {types.KindNormal, types.KindUnfinished, types.KindClass, types.KindAttribute},
	OpFinish:              {types.KindUnfinished},
	OpNewDependency:       types.Kinds,
	OpNewDependent:        types.Kinds,
}

// Legal reports whether op may start from a card of kind from. Front-ends
// use it to hide menu entries; the controller checks it again on every call.
// IntoAnswer additionally needs an Instance dependency, which only the
// controller can check.
func Legal(op Op, from types.Kind) bool {
	return slices.Contains(legalSources[op], from)
}

var descriptions = map[Op]string{
	OpIntoInstance:        "be turned into an instance",
	OpIntoClass:           "be turned into a class",
	OpIntoStatement:       "be turned into a statement",
	OpIntoEvent:           "be turned into an event",
	OpIntoAttribute:       "be turned into an attribute card",
	OpIntoAnswer:          "become an attribute answer",
	OpSetParentClass:      "take a parent class",
	OpNewAttributePattern: "declare attribute patterns",
	OpFillAttribute:       "get attribute cards",
	OpSetBackRef:          "take a card as its answer",
	OpFinish:              "be finished",
	OpNewDependency:       "take a new dependency",
	OpNewDependent:        "take a new dependent",
}

func (op Op) describe() string {
	if d, ok := descriptions[op]; ok {
		return d
	}
	return string(op)
}
