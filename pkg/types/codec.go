package types

import (
	"encoding/json"
	"fmt"
)

// EncodeType serializes a card type into its kind and JSON payload, the form
// stores persist it in.
func EncodeType(t CardType) (Kind, []byte, error) {
	if t == nil {
		return "", nil, ErrInvalidData
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return "", nil, fmt.Errorf("encoding %s payload: %w", t.Kind(), err)
	}
	return t.Kind(), payload, nil
}

// DecodeType rebuilds a card type from its kind and JSON payload.
// Returns ErrInvalidData for an unknown kind or a payload that does not
// decode into the kind's variant.
func DecodeType(kind Kind, payload []byte) (CardType, error) {
	var (
		t   CardType
		err error
	)
	switch kind {
	case KindNormal:
		var v Normal
		err = json.Unmarshal(payload, &v)
		t = v
	case KindUnfinished:
		var v Unfinished
		err = json.Unmarshal(payload, &v)
		t = v
	case KindInstance:
		var v Instance
		err = json.Unmarshal(payload, &v)
		t = v
	case KindClass:
		var v Class
		err = json.Unmarshal(payload, &v)
		t = v
	case KindAttribute:
		var v AttributeCard
		err = json.Unmarshal(payload, &v)
		t = v
	case KindStatement:
		var v Statement
		err = json.Unmarshal(payload, &v)
		t = v
	case KindEvent:
		var v Event
		err = json.Unmarshal(payload, &v)
		t = v
	default:
		return nil, fmt.Errorf("%w: unknown card kind %q", ErrInvalidData, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s payload: %v", ErrInvalidData, kind, err)
	}
	return t, nil
}
