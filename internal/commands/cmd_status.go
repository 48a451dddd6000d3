package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/styles"
	"github.com/colonyops/qcdash/internal/dashboard"
	"github.com/colonyops/qcdash/pkg/iojson"
)

type StatusCmd struct {
	flags *Flags
	app   *dashboard.App

	// flags
	milestones []string
	scope      string
	include    []string
	gate       bool
	jsonOutput bool
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags, app *dashboard.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Summarize QC health per milestone",
		UsageText: "qcdash status [--milestone name]... [--scope open|all] [--gate] [--json]",
		Description: `Fetches every milestone's issues, looks up all their statuses in one batch
and classifies each milestone as healthy, partial or failed.

Use --gate to show which milestones a record would include and why others
are left out.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "milestone",
				Aliases:     []string{"M"},
				Usage:       "milestone to summarize (repeatable, defaults to milestones.names)",
				Destination: &cmd.milestones,
			},
			&cli.StringFlag{
				Name:        "scope",
				Usage:       "issues to include: open or all (defaults to milestones.scope)",
				Destination: &cmd.scope,
			},
			&cli.StringSliceFlag{
				Name:        "include",
				Usage:       "only count issues whose file matches the glob (repeatable)",
				Destination: &cmd.include,
			},
			&cli.BoolFlag{
				Name:        "gate",
				Usage:       "show record gating instead of the health table",
				Destination: &cmd.gate,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	mc := cmd.app.Config.Milestones
	if len(cmd.milestones) > 0 {
		mc.Names = cmd.milestones
	}
	if cmd.scope != "" {
		mc.Scope = milestone.Scope(cmd.scope)
		if !mc.Scope.IsValid() {
			return fmt.Errorf("invalid --scope %q: must be open or all", cmd.scope)
		}
	}
	if len(cmd.include) > 0 {
		mc.Include = cmd.include
	}
	if len(mc.Names) == 0 {
		return fmt.Errorf("no milestones: pass --milestone or set milestones.names in %s", cmd.flags.ConfigPath)
	}

	reports := cmd.app.Service.MilestoneReports(ctx, mc.Names, mc.Inclusion())
	out := c.Root().Writer

	if cmd.gate {
		g := milestone.Gate(reports)
		if cmd.jsonOutput {
			return iojson.WriteWith(out, c.Root().ErrWriter, g)
		}
		printGating(out, g)
		return nil
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, reports)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MILESTONE\tISSUES\tCHECKED\tFAILED\tLOADING\tHEALTH")
	for _, r := range reports {
		// styled column last so escape codes do not skew alignment
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Name,
			len(r.Items),
			r.Info.StatusAttemptedCount,
			r.Info.StatusErrorCount,
			r.Info.LoadingCount,
			styles.Health(r.Health()),
		)
	}
	_ = w.Flush()

	for _, r := range reports {
		printFailures(out, r)
	}

	return nil
}

func printFailures(out io.Writer, r milestone.Report) {
	if r.Info.ListFailed {
		_, _ = fmt.Fprintf(out, "\n%s: %s\n", styles.HeaderStyle.Render(r.Name), styles.ErrorStyle.Render(r.Info.ListError))
		return
	}
	if len(r.Info.StatusErrors) == 0 {
		return
	}

	_, _ = fmt.Fprintf(out, "\n%s\n", styles.HeaderStyle.Render(r.Name))
	for _, e := range r.Info.StatusErrors {
		_, _ = fmt.Fprintf(out, "  #%d %s %s\n", e.Number, styles.MutedStyle.Render(string(e.Kind)), e.Message)
	}
}

func printGating(out io.Writer, g milestone.Gating) {
	for _, r := range g.Included {
		_, _ = fmt.Fprintf(out, "%s %s\n", styles.SuccessStyle.Render("include"), r.Name)
	}
	for _, r := range g.Excluded {
		_, _ = fmt.Fprintf(out, "%s %s\n", styles.ErrorStyle.Render("exclude"), r.Name)
	}

	if len(g.Notices) == 0 {
		return
	}

	_, _ = fmt.Fprintln(out)
	for _, n := range g.Notices {
		_, _ = fmt.Fprintf(out, "%s %s: %s\n", styles.Severity(n.Severity), n.Milestone, n.Message)
		for _, f := range n.Failures {
			_, _ = fmt.Fprintf(out, "  #%d %s\n", f.Number, f.Message)
		}
	}
}
