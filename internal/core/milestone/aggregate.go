package milestone

import (
	"slices"

	"github.com/colonyops/qcdash/internal/core/status"
)

// ListOutcome is the result of fetching a milestone's items.
type ListOutcome struct {
	Items []Item
	Err   error
}

// StatusOutcome is the state of one item's status lookup.
type StatusOutcome struct {
	Loading bool
	Result  status.Result
	// Err is a batch-level error that rejected this lookup.
	Err error
}

// FromLoaded converts a settled loader outcome.
func FromLoaded(o status.Outcome) StatusOutcome {
	return StatusOutcome{Result: o.Result, Err: o.Err}
}

func (o StatusOutcome) failed() bool {
	return !o.Loading && (o.Err != nil || !o.Result.OK())
}

// ItemError is a failed status lookup for one item.
type ItemError struct {
	Number  int                `json:"number"`
	Kind    status.FailureKind `json:"kind,omitempty"`
	Message string             `json:"message"`
}

// Info aggregates a milestone's list fetch and its items' status lookups.
type Info struct {
	ListFailed           bool        `json:"list_failed"`
	ListError            string      `json:"list_error,omitempty"`
	LoadingCount         int         `json:"loading_count"`
	StatusErrorCount     int         `json:"status_error_count"`
	StatusErrors         []ItemError `json:"status_errors"`
	StatusAttemptedCount int         `json:"status_attempted_count"`
}

// Aggregate builds Info from the list outcome and the status outcomes of the
// items include accepts. Items without an entry in statuses are not counted
// as attempted.
func Aggregate(list ListOutcome, statuses map[int]StatusOutcome, include Inclusion) Info {
	info := Info{StatusErrors: []ItemError{}}

	if list.Err != nil {
		info.ListFailed = true
		info.ListError = list.Err.Error()
		return info
	}

	if include == nil {
		include = AllItems
	}

	for _, it := range list.Items {
		if !include(it) {
			continue
		}
		o, ok := statuses[it.Number]
		if !ok {
			continue
		}
		info.StatusAttemptedCount++

		switch {
		case o.Loading:
			info.LoadingCount++
		case o.failed():
			info.StatusErrors = append(info.StatusErrors, itemError(it.Number, o))
		}
	}

	slices.SortFunc(info.StatusErrors, func(a, b ItemError) int { return a.Number - b.Number })
	info.StatusErrorCount = len(info.StatusErrors)
	return info
}

func itemError(number int, o StatusOutcome) ItemError {
	if o.Err != nil {
		return ItemError{Number: number, Message: o.Err.Error()}
	}
	if f := o.Result.Failure; f != nil {
		return ItemError{Number: number, Kind: f.Kind, Message: f.Message}
	}
	return ItemError{Number: number, Kind: status.FailureNotReturned, Message: "no status"}
}

// Health is the three-way classification used to gate downstream work.
type Health string

// Health values.
const (
	HealthHealthy Health = "healthy"
	HealthPartial Health = "partial"
	HealthFailed  Health = "failed"
)

// Health classifies the milestone. A milestone is failed when its list could
// not be fetched or every attempted lookup failed, partial when only some
// failed, and healthy otherwise. Lookups still loading count as not failed.
func (i Info) Health() Health {
	switch {
	case i.ListFailed:
		return HealthFailed
	case i.StatusAttemptedCount > 0 && i.StatusErrorCount == i.StatusAttemptedCount:
		return HealthFailed
	case i.StatusErrorCount > 0:
		return HealthPartial
	default:
		return HealthHealthy
	}
}

// Loading reports whether any lookup is still in flight.
func (i Info) Loading() bool {
	return i.LoadingCount > 0
}
