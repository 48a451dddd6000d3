package selection

import (
	"fmt"

	"github.com/colonyops/qcdash/internal/core/timeline"
)

// Session holds the stored selection for one open review. It is not safe
// for concurrent use; the owner serializes access.
type Session struct {
	mode    Mode
	strat   strategy
	tl      timeline.Timeline
	showAll bool
	dirty   bool
	stored  Selection
}

// Open starts a session with the mode's default selection and the default
// visibility. Reopening always resets, even for the same item.
func Open(mode Mode, tl timeline.Timeline) (*Session, error) {
	strat, ok := strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	return &Session{
		mode:   mode,
		strat:  strat,
		tl:     tl,
		stored: strat.defaults(tl),
	}, nil
}

// Mode returns the session mode.
func (s *Session) Mode() Mode { return s.mode }

// Timeline returns the timeline the session currently works on.
func (s *Session) Timeline() timeline.Timeline { return s.tl }

// Stored returns the stored selection. It is never rewritten by snapping.
func (s *Session) Stored() Selection { return s.stored }

// ShowAll reports whether hidden commits are shown.
func (s *Session) ShowAll() bool { return s.showAll }

// Dirty reports whether the working copy has uncommitted changes.
func (s *Session) Dirty() bool { return s.dirty }

// SetShowAll toggles showing commits that are hidden by default.
func (s *Session) SetShowAll(v bool) { s.showAll = v }

// SetDirty records whether the working copy is dirty. Only review mode
// uses it.
func (s *Session) SetDirty(v bool) { s.dirty = v }

// Replace swaps in freshly fetched data. Stored indices are kept and
// snapped onto the new visible set when resolved.
func (s *Session) Replace(tl timeline.Timeline) { s.tl = tl }

// Defaults returns the mode default for the current timeline.
func (s *Session) Defaults() Selection { return s.strat.defaults(s.tl) }

// ExceptionIndex returns the index forced visible so the default selection
// is never hidden.
func (s *Session) ExceptionIndex() timeline.Index {
	return s.strat.exception(s.tl, s.strat.defaults(s.tl))
}

// SetRange stores a range. Handles may arrive out of order. Spot modes keep
// only the second handle.
func (s *Session) SetRange(a, b timeline.Index) {
	if s.strat.arity == AritySpot {
		s.stored = spot(b)
		return
	}
	s.stored = Selection{From: a, To: b}.sorted()
}

// SetSpot stores a single commit. In range mode both handles move to i.
func (s *Session) SetSpot(i timeline.Index) {
	s.stored = spot(i)
}

// SelectRangePos stores a range picked from displayed positions.
func (s *Session) SelectRangePos(a, b timeline.Pos) bool {
	v := s.visible()
	ca, okA := v.At(a)
	cb, okB := v.At(b)
	if !okA || !okB {
		return false
	}
	s.SetRange(ca.Index, cb.Index)
	return true
}

// SelectSpotPos stores a single commit picked from a displayed position.
func (s *Session) SelectSpotPos(p timeline.Pos) bool {
	c, ok := s.visible().At(p)
	if !ok {
		return false
	}
	s.SetSpot(c.Index)
	return true
}

// Visible returns the commits currently shown.
func (s *Session) Visible() timeline.Visible {
	return s.visible()
}

func (s *Session) visible() timeline.Visible {
	return s.tl.Visible(s.showAll, s.ExceptionIndex())
}
