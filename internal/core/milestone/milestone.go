// Package milestone summarizes the health of a milestone's QC issues so
// downstream operations can include, warn about or exclude it.
package milestone

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// State is an issue's open/closed state.
type State string

// State values.
const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Item is one QC issue in a milestone.
type Item struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	File      string `json:"file"`
	State     State  `json:"state"`
	Milestone string `json:"milestone"`
}

// Inclusion decides which items of a milestone are relevant.
type Inclusion func(Item) bool

// AllItems includes every item.
func AllItems(Item) bool { return true }

// OpenOnly includes open items.
func OpenOnly(it Item) bool { return it.State == StateOpen }

// MatchFiles includes items whose file matches any doublestar pattern. No
// patterns matches everything.
func MatchFiles(patterns ...string) Inclusion {
	if len(patterns) == 0 {
		return AllItems
	}
	return func(it Item) bool {
		file := strings.TrimPrefix(it.File, "./")
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, file); ok {
				return true
			}
		}
		return false
	}
}

// And includes items accepted by every predicate.
func And(preds ...Inclusion) Inclusion {
	return func(it Item) bool {
		for _, p := range preds {
			if !p(it) {
				return false
			}
		}
		return true
	}
}

// Scope selects the base inclusion predicate by name.
type Scope string

// Scope values.
const (
	ScopeOpen Scope = "open"
	ScopeAll  Scope = "all"
)

// IsValid reports whether s is a known scope.
func (s Scope) IsValid() bool {
	return s == ScopeOpen || s == ScopeAll
}

// Inclusion returns the predicate for the scope.
func (s Scope) Inclusion() Inclusion {
	if s == ScopeAll {
		return AllItems
	}
	return OpenOnly
}
