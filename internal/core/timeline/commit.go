// Package timeline turns provider commit lists into an oldest-first timeline
// with stable indices and decides which commits are visible to a reviewer.
package timeline

import "slices"

// Marker is a workflow event recorded against a commit.
type Marker string

// Marker values.
const (
	MarkerInitial      Marker = "initial"
	MarkerNotification Marker = "notification"
	MarkerApproved     Marker = "approved"
	MarkerReviewed     Marker = "reviewed"
)

// IsValid reports whether m is a known marker.
func (m Marker) IsValid() bool {
	switch m {
	case MarkerInitial, MarkerNotification, MarkerApproved, MarkerReviewed:
		return true
	default:
		return false
	}
}

// Index is a commit's position in the oldest-first timeline. All stored
// selection state is expressed as an Index.
type Index int

// NoException means no commit is forced visible.
const NoException Index = -1

// ProviderCommit is the newest-first shape delivered by the tracker.
type ProviderCommit struct {
	Hash        string   `json:"hash"`
	Message     string   `json:"message"`
	Statuses    []string `json:"statuses"`
	FileChanged bool     `json:"file_changed"`
}

// Commit is one revision of a tracked file.
type Commit struct {
	Hash        string   `json:"hash"`
	Message     string   `json:"message"`
	Markers     []Marker `json:"markers"`
	FileChanged bool     `json:"file_changed"`
	Index       Index    `json:"index"`
}

// HasMarkers reports whether any workflow event happened at this commit.
func (c Commit) HasMarkers() bool {
	return len(c.Markers) > 0
}

// Has reports whether the commit carries marker m.
func (c Commit) Has(m Marker) bool {
	return slices.Contains(c.Markers, m)
}

// ShortHash returns the first seven characters of the hash.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Timeline is an oldest-first commit sequence where commits[i].Index == i.
type Timeline struct {
	commits []Commit
}

// Normalize converts a newest-first provider list into a Timeline. Unknown
// status strings are dropped and duplicate markers collapse.
func Normalize(provider []ProviderCommit) Timeline {
	n := len(provider)
	commits := make([]Commit, n)

	for i, pc := range provider {
		idx := n - 1 - i
		commits[idx] = Commit{
			Hash:        pc.Hash,
			Message:     pc.Message,
			Markers:     parseMarkers(pc.Statuses),
			FileChanged: pc.FileChanged,
			Index:       Index(idx),
		}
	}

	return Timeline{commits: commits}
}

func parseMarkers(statuses []string) []Marker {
	if len(statuses) == 0 {
		return nil
	}

	markers := make([]Marker, 0, len(statuses))
	for _, s := range statuses {
		m := Marker(s)
		if !m.IsValid() || slices.Contains(markers, m) {
			continue
		}
		markers = append(markers, m)
	}

	if len(markers) == 0 {
		return nil
	}
	return markers
}

// Len returns the number of commits.
func (t Timeline) Len() int {
	return len(t.commits)
}

// IsEmpty reports whether the timeline has no commits.
func (t Timeline) IsEmpty() bool {
	return len(t.commits) == 0
}

// At returns the commit at index i.
func (t Timeline) At(i Index) (Commit, bool) {
	if i < 0 || int(i) >= len(t.commits) {
		return Commit{}, false
	}
	return t.commits[i], true
}

// NewestIndex returns the index of the newest commit, or NoException when empty.
func (t Timeline) NewestIndex() Index {
	return Index(len(t.commits) - 1)
}

// Newest returns the newest commit.
func (t Timeline) Newest() (Commit, bool) {
	return t.At(t.NewestIndex())
}

// Commits returns a copy of the commits, oldest first.
func (t Timeline) Commits() []Commit {
	return slices.Clone(t.commits)
}

// LatestMarked walks newest to oldest and returns the first commit carrying
// any marker.
func (t Timeline) LatestMarked() (Commit, bool) {
	for i := len(t.commits) - 1; i >= 0; i-- {
		if t.commits[i].HasMarkers() {
			return t.commits[i], true
		}
	}
	return Commit{}, false
}

// AnyChangedIn reports whether a commit in the half-open range (from, to]
// changed the file.
func (t Timeline) AnyChangedIn(from, to Index) bool {
	for i := max(from+1, 0); i <= to && int(i) < len(t.commits); i++ {
		if t.commits[i].FileChanged {
			return true
		}
	}
	return false
}
