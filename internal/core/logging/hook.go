package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts issue and milestone from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if n, ok := GetIssue(ctx); ok {
		e.Int("issue", n)
	}

	if name := GetMilestone(ctx); name != "" {
		e.Str("milestone", name)
	}
}
