package transition

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// Status is the result class of a transition.
type Status int

// Transition statuses.
const (
	StatusApplied Status = iota
	StatusUnchanged
	StatusCancelled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusUnchanged:
		return "unchanged"
	case StatusCancelled:
		return "cancelled"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome reports what a transition did. Message holds the user-facing
// notice for rejections and cancellations. Created is set by operations
// that add a new card next to Card.
type Outcome struct {
	Status    Status
	Message   string
	Card      types.CardID
	Type      types.CardType
	Attribute types.AttributeID
	Created   types.CardID
}

// OK reports whether the card now has the requested type or the requested
// pattern exists.
func (o Outcome) OK() bool {
	return o.Status == StatusApplied || o.Status == StatusUnchanged
}

// rejection is a failed precondition with a notice for the user.
type rejection struct {
	msg string
}

func (r *rejection) Error() string { return r.msg }
func (r *rejection) Unwrap() error { return types.ErrInvalidTransition }

func reject(format string, args ...any) error {
	return &rejection{msg: fmt.Sprintf(format, args...)}
}

// notice extracts the user-facing text from an interaction error.
func notice(err error) string {
	var r *rejection
	if errors.As(err, &r) {
		return r.msg
	}
	return err.Error()
}
