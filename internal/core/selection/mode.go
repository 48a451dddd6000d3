// Package selection decides which commits a reviewer acts on for a notify,
// review or approve action.
//
// The three actions share one selector. Each mode is a strategy value that
// supplies the arity (range or single spot), the default selection, the
// exception index that keeps that default visible, and the rule for offering
// a difference view.
package selection

import (
	"errors"
	"fmt"

	"github.com/colonyops/qcdash/internal/core/timeline"
)

// ErrUnknownMode is returned when a mode name is not recognized.
var ErrUnknownMode = errors.New("unknown selection mode")

// Mode is the action a review session prepares.
type Mode string

// Mode values.
const (
	ModeNotify  Mode = "notify"
	ModeReview  Mode = "review"
	ModeApprove Mode = "approve"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeNotify, ModeReview, ModeApprove}

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := strategies[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Arity is the number of handles a mode selects with.
type Arity int

const (
	// ArityRange selects a from/to pair.
	ArityRange Arity = iota
	// AritySpot selects a single commit.
	AritySpot
)

// Arity returns the number of handles the mode uses.
func (m Mode) Arity() Arity {
	return strategies[m].arity
}

// Selection is a stored selection in timeline index space. Spot modes keep
// From == To.
type Selection struct {
	From timeline.Index `json:"from"`
	To   timeline.Index `json:"to"`
}

// Spot returns the selected index for single-spot modes.
func (s Selection) Spot() timeline.Index {
	return s.To
}

func (s Selection) sorted() Selection {
	if s.From > s.To {
		return Selection{From: s.To, To: s.From}
	}
	return s
}

func spot(i timeline.Index) Selection {
	return Selection{From: i, To: i}
}

type strategy struct {
	arity     Arity
	defaults  func(tl timeline.Timeline) Selection
	exception func(tl timeline.Timeline, def Selection) timeline.Index
	diff      func(tl timeline.Timeline, sel Selection, dirty bool) bool
}

var strategies = map[Mode]strategy{
	ModeNotify: {
		arity:     ArityRange,
		defaults:  notifyDefaults,
		exception: notifyException,
		diff: func(tl timeline.Timeline, sel Selection, _ bool) bool {
			return sel.From < sel.To && tl.AnyChangedIn(sel.From, sel.To)
		},
	},
	ModeReview: {
		arity: AritySpot,
		defaults: func(tl timeline.Timeline) Selection {
			return spot(max(tl.NewestIndex(), 0))
		},
		exception: func(tl timeline.Timeline, _ Selection) timeline.Index {
			return hiddenOrNone(tl, tl.NewestIndex())
		},
		diff: func(_ timeline.Timeline, _ Selection, dirty bool) bool {
			return dirty
		},
	},
	ModeApprove: {
		arity:    AritySpot,
		defaults: approveDefaults,
		exception: func(tl timeline.Timeline, def Selection) timeline.Index {
			return hiddenOrNone(tl, def.Spot())
		},
		diff: func(timeline.Timeline, Selection, bool) bool {
			return false
		},
	},
}

// notifyDefaults selects from the latest marked commit to the newest commit
// after it that changed the file.
func notifyDefaults(tl timeline.Timeline) Selection {
	if tl.IsEmpty() {
		return spot(0)
	}

	from := timeline.Index(0)
	if c, ok := tl.LatestMarked(); ok {
		from = c.Index
	}

	newest := tl.NewestIndex()
	if from == newest {
		return spot(from)
	}

	to := from
	for i := newest; i > from; i-- {
		if c, _ := tl.At(i); c.FileChanged {
			to = i
			break
		}
	}
	return Selection{From: from, To: to}
}

// notifyException only looks at FileChanged. Review and approve also require
// the commit to be unmarked; the two rules differ on purpose.
func notifyException(tl timeline.Timeline, def Selection) timeline.Index {
	newest := tl.NewestIndex()
	if def.To != newest {
		return timeline.NoException
	}
	if c, ok := tl.At(newest); ok && !c.FileChanged {
		return newest
	}
	return timeline.NoException
}

func approveDefaults(tl timeline.Timeline) Selection {
	if c, ok := tl.LatestMarked(); ok {
		return spot(c.Index)
	}
	return spot(max(tl.NewestIndex(), 0))
}

// hiddenOrNone returns i when the commit at i would otherwise be filtered out.
func hiddenOrNone(tl timeline.Timeline, i timeline.Index) timeline.Index {
	c, ok := tl.At(i)
	if !ok || c.HasMarkers() || c.FileChanged {
		return timeline.NoException
	}
	return i
}
