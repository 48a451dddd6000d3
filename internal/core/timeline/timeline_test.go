package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture returns A(initial, changed) B(notification, changed)
// C(none, unchanged) D(none, changed) in newest-first provider order.
func fixture() []ProviderCommit {
	return []ProviderCommit{
		{Hash: "dddddddd", Message: "D", FileChanged: true},
		{Hash: "cccccccc", Message: "C"},
		{Hash: "bbbbbbbb", Message: "B", Statuses: []string{"notification"}, FileChanged: true},
		{Hash: "aaaaaaaa", Message: "A", Statuses: []string{"initial"}, FileChanged: true},
	}
}

func TestNormalize(t *testing.T) {
	tl := Normalize(fixture())

	require.Equal(t, 4, tl.Len())
	for i, c := range tl.Commits() {
		assert.Equal(t, Index(i), c.Index, "index must match position")
	}

	first, ok := tl.At(0)
	require.True(t, ok)
	assert.Equal(t, "A", first.Message)
	assert.True(t, first.Has(MarkerInitial))

	newest, ok := tl.Newest()
	require.True(t, ok)
	assert.Equal(t, "D", newest.Message)
	assert.Equal(t, "ddddddd", newest.ShortHash())
}

func TestNormalize_Empty(t *testing.T) {
	tl := Normalize(nil)

	assert.True(t, tl.IsEmpty())
	assert.Equal(t, NoException, tl.NewestIndex())
	_, ok := tl.Newest()
	assert.False(t, ok)
}

func TestNormalize_Markers(t *testing.T) {
	tl := Normalize([]ProviderCommit{
		{Hash: "x", Statuses: []string{"approved", "bogus", "approved", "reviewed"}},
		{Hash: "y", Statuses: []string{"bogus"}},
	})

	newest, _ := tl.Newest()
	assert.Equal(t, []Marker{MarkerApproved, MarkerReviewed}, newest.Markers)

	oldest, _ := tl.At(0)
	assert.False(t, oldest.HasMarkers(), "unknown statuses are dropped")
}

func TestIsVisible(t *testing.T) {
	tests := []struct {
		name      string
		commit    Commit
		showAll   bool
		exception Index
		want      bool
	}{
		{name: "plain hidden", commit: Commit{Index: 2}, exception: NoException, want: false},
		{name: "show all", commit: Commit{Index: 2}, showAll: true, exception: NoException, want: true},
		{name: "file changed", commit: Commit{Index: 2, FileChanged: true}, exception: NoException, want: true},
		{name: "marked", commit: Commit{Index: 2, Markers: []Marker{MarkerReviewed}}, exception: NoException, want: true},
		{name: "exception", commit: Commit{Index: 2}, exception: 2, want: true},
		{name: "other exception", commit: Commit{Index: 2}, exception: 3, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVisible(tt.commit, tt.showAll, tt.exception))
		})
	}
}

func TestVisible_HidesUnchangedUnmarked(t *testing.T) {
	tl := Normalize(fixture())

	v := tl.Visible(false, NoException)
	require.Equal(t, 3, v.Len())
	assert.False(t, v.Contains(2), "C is hidden by default")

	all := tl.Visible(true, NoException)
	assert.Equal(t, 4, all.Len())
	assert.True(t, all.Contains(2))

	withException := tl.Visible(false, 2)
	assert.True(t, withException.Contains(2))
}

func TestVisible_Nearest(t *testing.T) {
	// visible indices: 0, 3, 5
	tl := Normalize([]ProviderCommit{
		{Hash: "5", FileChanged: true},
		{Hash: "4"},
		{Hash: "3", FileChanged: true},
		{Hash: "2"},
		{Hash: "1"},
		{Hash: "0", FileChanged: true},
	})
	v := tl.Visible(false, NoException)
	require.Equal(t, 3, v.Len())

	tests := []struct {
		index Index
		want  Index
	}{
		{index: 0, want: 0},
		{index: 1, want: 0},
		{index: 2, want: 3},
		{index: 4, want: 3}, // tie between 3 and 5 resolves to the earlier
		{index: 5, want: 5},
		{index: 9, want: 5},
		{index: -3, want: 0},
	}

	for _, tt := range tests {
		pos, ok := v.Nearest(tt.index)
		require.True(t, ok)
		c, _ := v.At(pos)
		assert.Equal(t, tt.want, c.Index, "nearest to %d", tt.index)
	}
}

func TestVisible_NearestEmpty(t *testing.T) {
	_, ok := Normalize(nil).Visible(true, NoException).Nearest(0)
	assert.False(t, ok)
}

func TestTimeline_AnyChangedIn(t *testing.T) {
	tl := Normalize(fixture())

	assert.True(t, tl.AnyChangedIn(1, 3))
	assert.False(t, tl.AnyChangedIn(1, 2), "C did not change the file")
	assert.False(t, tl.AnyChangedIn(3, 3))
}

func TestTimeline_LatestMarked(t *testing.T) {
	c, ok := Normalize(fixture()).LatestMarked()
	require.True(t, ok)
	assert.Equal(t, "B", c.Message)

	_, ok = Normalize([]ProviderCommit{{Hash: "x"}}).LatestMarked()
	assert.False(t, ok)
}
