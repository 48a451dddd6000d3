package logging

import "context"

type contextKey string

const (
	issueKey     contextKey = "issue"
	milestoneKey contextKey = "milestone"
)

// WithIssue adds an issue number to the context.
func WithIssue(ctx context.Context, number int) context.Context {
	return context.WithValue(ctx, issueKey, number)
}

// WithMilestone adds a milestone name to the context.
func WithMilestone(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, milestoneKey, name)
}

// GetIssue retrieves the issue number from the context.
func GetIssue(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(issueKey).(int)
	return n, ok
}

// GetMilestone retrieves the milestone name from the context.
// Returns empty string if not present.
func GetMilestone(ctx context.Context) string {
	if name, ok := ctx.Value(milestoneKey).(string); ok {
		return name
	}
	return ""
}
