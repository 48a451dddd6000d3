// Package status coalesces per-issue QC status lookups into batched calls
// and guarantees that every lookup resolves exactly once.
package status

import (
	"context"
	"fmt"
)

// IssueStatus is the QC status payload for one issue.
type IssueStatus struct {
	Number             int    `json:"issue_number"`
	QCStatus           string `json:"qc_status"`
	ChecklistCompleted int    `json:"checklist_completed"`
	ChecklistTotal     int    `json:"checklist_total"`
	Branch             string `json:"branch"`
	LatestCommit       string `json:"latest_commit"`
	// Dirty is set when the working copy has uncommitted changes to the file.
	Dirty bool `json:"dirty"`
}

// FailureKind classifies a per-issue failure.
type FailureKind string

// FailureKind values.
const (
	// FailureNotReturned is synthesized when the server omitted the issue.
	FailureNotReturned FailureKind = "not_returned"
	// FailureProcessing means the server reported an error for the issue.
	FailureProcessing FailureKind = "processing_failed"
)

// Failure describes why one issue's status could not be produced.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is the outcome for one requested issue. Exactly one of Status and
// Failure is set.
type Result struct {
	Number  int          `json:"issue_number"`
	Status  *IssueStatus `json:"status,omitempty"`
	Failure *Failure     `json:"failure,omitempty"`
}

// OK reports whether the lookup succeeded.
func (r Result) OK() bool {
	return r.Status != nil
}

// StatusError is a failure entry in a batch response.
type StatusError struct {
	Number int    `json:"issue_number"`
	Error  string `json:"error"`
}

// BatchResponse is the batch endpoint payload. The union of ids across
// Results and Errors may be smaller than the request.
type BatchResponse struct {
	Results []IssueStatus `json:"results"`
	Errors  []StatusError `json:"errors"`
}

// Fetcher performs one batch status call.
type Fetcher interface {
	FetchStatuses(ctx context.Context, numbers []int) (BatchResponse, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, numbers []int) (BatchResponse, error)

func (f FetcherFunc) FetchStatuses(ctx context.Context, numbers []int) (BatchResponse, error) {
	return f(ctx, numbers)
}
