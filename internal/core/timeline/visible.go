package timeline

// Pos is a position inside a Visible subset. It is only meaningful for the
// subset it came from; convert back to an Index before storing it.
type Pos int

// IsVisible reports whether c is shown by default.
func IsVisible(c Commit, showAll bool, exception Index) bool {
	return showAll || c.FileChanged || c.HasMarkers() || c.Index == exception
}

// Visible is the ordered subset of a timeline currently shown to a reviewer.
type Visible struct {
	commits []Commit
}

// Visible filters the timeline. The result is not cached; call it again
// whenever showAll, the exception or the data changes.
func (t Timeline) Visible(showAll bool, exception Index) Visible {
	out := make([]Commit, 0, len(t.commits))
	for _, c := range t.commits {
		if IsVisible(c, showAll, exception) {
			out = append(out, c)
		}
	}
	return Visible{commits: out}
}

// Len returns the number of visible commits.
func (v Visible) Len() int {
	return len(v.commits)
}

// At returns the commit at visible position p.
func (v Visible) At(p Pos) (Commit, bool) {
	if p < 0 || int(p) >= len(v.commits) {
		return Commit{}, false
	}
	return v.commits[p], true
}

// Commits returns the visible commits, oldest first.
func (v Visible) Commits() []Commit {
	out := make([]Commit, len(v.commits))
	copy(out, v.commits)
	return out
}

// Contains reports whether index i is visible.
func (v Visible) Contains(i Index) bool {
	_, ok := v.PosOf(i)
	return ok
}

// PosOf returns the visible position of index i.
func (v Visible) PosOf(i Index) (Pos, bool) {
	for p, c := range v.commits {
		if c.Index == i {
			return Pos(p), true
		}
		if c.Index > i {
			break
		}
	}
	return 0, false
}

// Nearest snaps i onto the visible subset: the position of i itself when
// visible, otherwise the visible commit with the smallest distance to i.
// Ties go to the smaller index. It returns false only when nothing is
// visible.
func (v Visible) Nearest(i Index) (Pos, bool) {
	if len(v.commits) == 0 {
		return 0, false
	}

	best := Pos(0)
	bestDist := distance(v.commits[0].Index, i)
	for p := 1; p < len(v.commits); p++ {
		d := distance(v.commits[p].Index, i)
		// strict < keeps the earlier candidate on ties
		if d < bestDist {
			best, bestDist = Pos(p), d
		}
	}
	return best, true
}

func distance(a, b Index) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
