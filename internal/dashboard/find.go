package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/colonyops/qcdash/internal/core/milestone"
)

// ErrNoMatch is returned when a query matches no item.
var ErrNoMatch = errors.New("no matching item")

type itemSource []milestone.Item

func (s itemSource) String(i int) string { return s[i].File + " " + s[i].Title }
func (s itemSource) Len() int            { return len(s) }

// FindItem resolves a query to an item. "#12" or "12" selects by number;
// anything else is fuzzy matched against file and title and the best score
// wins.
func FindItem(items []milestone.Item, query string) (milestone.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return milestone.Item{}, ErrNoMatch
	}

	if n, err := strconv.Atoi(strings.TrimPrefix(query, "#")); err == nil {
		for _, it := range items {
			if it.Number == n {
				return it, nil
			}
		}
		return milestone.Item{}, fmt.Errorf("%w: #%d", ErrNoMatch, n)
	}

	matches := fuzzy.FindFrom(query, itemSource(items))
	if len(matches) == 0 {
		return milestone.Item{}, fmt.Errorf("%w: %q", ErrNoMatch, query)
	}
	return items[matches[0].Index], nil
}
