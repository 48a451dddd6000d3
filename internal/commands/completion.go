package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qcdash/internal/dashboard"
)

// IssueCompleter returns a ShellCompleteFunc that suggests the issue numbers
// of the configured milestones as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func IssueCompleter(app *dashboard.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Config == nil {
			return
		}

		w := cmd.Root().Writer
		for _, name := range app.Config.Milestones.Names {
			items, err := app.Tracker.ListIssues(ctx, name)
			if err != nil {
				continue
			}
			for _, it := range items {
				// zsh and fish show the text after ':' as a description
				_, _ = fmt.Fprintf(w, "%d:%s\n", it.Number, it.Title)
			}
		}
	}
}
