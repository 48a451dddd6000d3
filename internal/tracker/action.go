package tracker

import (
	"errors"

	"github.com/colonyops/qcdash/internal/core/selection"
)

// ErrUnknownAction is returned for an action kind the backend does not
// accept.
var ErrUnknownAction = errors.New("unknown action")

// ActionKind is a workflow action posted to an issue.
type ActionKind string

// ActionKind values.
const (
	ActionNotify    ActionKind = "notify"
	ActionReview    ActionKind = "review"
	ActionApprove   ActionKind = "approve"
	ActionUnapprove ActionKind = "unapprove"
)

// IsValid reports whether k is a known action.
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionNotify, ActionReview, ActionApprove, ActionUnapprove:
		return true
	default:
		return false
	}
}

// Action is the request body for preview and post calls.
type Action struct {
	Kind        ActionKind `json:"-"`
	FromCommit  string     `json:"from_commit,omitempty"`
	ToCommit    string     `json:"to_commit,omitempty"`
	Commit      string     `json:"commit,omitempty"`
	IncludeDiff bool       `json:"include_diff"`
	Comment     string     `json:"comment,omitempty"`
}

// ActionFor builds the action for a resolved selection. The diff is only
// requested when the selection offers one.
func ActionFor(out selection.Output, comment string) Action {
	a := Action{
		Kind:        ActionKind(out.Mode),
		IncludeDiff: out.DiffEligible,
		Comment:     comment,
	}
	if out.From != nil {
		a.FromCommit = out.From.Hash
	}
	if out.To != nil {
		a.ToCommit = out.To.Hash
	}
	if out.Selected != nil {
		a.Commit = out.Selected.Hash
	}
	return a
}
