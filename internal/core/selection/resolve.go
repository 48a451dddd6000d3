package selection

import "github.com/colonyops/qcdash/internal/core/timeline"

// Handle is a displayed selection handle.
type Handle struct {
	Pos   timeline.Pos   `json:"pos"`
	Index timeline.Index `json:"index"`
	// Percent places the handle on a slider spanning the visible commits.
	Percent float64 `json:"percent"`
}

// Output is the resolved projection handed to presentation and to the
// preview/post collaborators.
type Output struct {
	Mode         Mode              `json:"mode"`
	ShowAll      bool              `json:"show_all"`
	Visible      []timeline.Commit `json:"visible_commits"`
	From         *timeline.Commit  `json:"from_commit,omitempty"`
	To           *timeline.Commit  `json:"to_commit,omitempty"`
	Selected     *timeline.Commit  `json:"selected_commit,omitempty"`
	Handles      []Handle          `json:"handles"`
	Stored       Selection         `json:"stored"`
	DiffEligible bool              `json:"diff_eligible"`
}

// Resolved returns the displayed selection in index space.
func (o Output) Resolved() (Selection, bool) {
	switch {
	case o.Selected != nil:
		return spot(o.Selected.Index), true
	case o.From != nil && o.To != nil:
		return Selection{From: o.From.Index, To: o.To.Index}, true
	default:
		return Selection{}, false
	}
}

// Resolve projects the stored selection onto the visible commits. Handles
// that point at hidden commits snap to the nearest visible one for display;
// the stored selection is left untouched.
func (s *Session) Resolve() Output {
	v := s.visible()
	out := Output{
		Mode:    s.mode,
		ShowAll: s.showAll,
		Visible: v.Commits(),
		Handles: []Handle{},
		Stored:  s.stored,
	}

	if v.Len() == 0 {
		return out
	}

	if s.strat.arity == AritySpot {
		p, _ := v.Nearest(s.stored.Spot())
		c, _ := v.At(p)
		out.Selected = &c
		out.Handles = append(out.Handles, handle(p, c, v.Len()))
		out.DiffEligible = s.strat.diff(s.tl, spot(c.Index), s.dirty)
		return out
	}

	fp, _ := v.Nearest(s.stored.From)
	tp, _ := v.Nearest(s.stored.To)
	if fp > tp {
		fp, tp = tp, fp
	}
	from, _ := v.At(fp)
	to, _ := v.At(tp)

	out.From = &from
	out.To = &to
	out.Handles = append(out.Handles, handle(fp, from, v.Len()), handle(tp, to, v.Len()))
	out.DiffEligible = s.strat.diff(s.tl, Selection{From: from.Index, To: to.Index}, s.dirty)
	return out
}

func handle(p timeline.Pos, c timeline.Commit, n int) Handle {
	return Handle{Pos: p, Index: c.Index, Percent: SliderPercent(p, n)}
}

// SliderPercent places visible position p on a 0-100 slider over n commits.
// A single visible commit sits in the center rather than at an end.
func SliderPercent(p timeline.Pos, n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 50
	default:
		return float64(p) / float64(n-1) * 100
	}
}
