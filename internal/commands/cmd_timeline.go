package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/qcdash/internal/core/selection"
	"github.com/colonyops/qcdash/internal/core/styles"
	"github.com/colonyops/qcdash/internal/core/timeline"
	"github.com/colonyops/qcdash/internal/dashboard"
	"github.com/colonyops/qcdash/pkg/iojson"
)

type TimelineCmd struct {
	flags *Flags
	app   *dashboard.App

	// flags
	sel        selectionFlags
	pick       bool
	jsonOutput bool
}

// NewTimelineCmd creates a new timeline command
func NewTimelineCmd(flags *Flags, app *dashboard.App) *TimelineCmd {
	return &TimelineCmd{flags: flags, app: app}
}

// Register adds the timeline command to the application
func (cmd *TimelineCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "timeline",
		Usage:     "Show an issue's commit timeline and selection",
		UsageText: "qcdash timeline <issue> [--mode notify|review|approve] [--all] [--pick] [--json]",
		Description: `Lists the commits shown for the issue in the given mode, oldest first, and
marks the selected range or commit.

<issue> is an issue number or a search over the configured milestones.
Commits that neither changed the file nor carry a workflow event are hidden
unless --all is set. Use --pick to choose the selection interactively.`,
		Flags: append(cmd.sel.flags(),
			&cli.BoolFlag{
				Name:        "pick",
				Usage:       "choose the selection interactively",
				Destination: &cmd.pick,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the resolved selection as JSON",
				Destination: &cmd.jsonOutput,
			},
		),
		ShellComplete: IssueCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *TimelineCmd) run(ctx context.Context, c *cli.Command) error {
	view, err := openReview(ctx, cmd.app, c.Args().First(), &cmd.sel)
	if err != nil {
		return err
	}
	defer cmd.app.Desk.Close()

	if cmd.pick {
		if !isTerminal(os.Stdin) {
			return errors.New("--pick needs an interactive terminal")
		}
		view, err = pickSelection(cmd.app.Desk, view)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("pick: %w", err)
		}
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, view)
	}

	printTimeline(c.Root().Writer, view)
	return nil
}

func pickSelection(desk *dashboard.Desk, view dashboard.View) (dashboard.View, error) {
	out := view.Output
	if len(out.Visible) == 0 {
		return view, nil
	}

	opts := make([]huh.Option[timeline.Index], len(out.Visible))
	for i, c := range out.Visible {
		opts[i] = huh.NewOption(commitLabel(c), c.Index)
	}

	if out.Mode.Arity() == selection.AritySpot {
		spot := out.Selected.Index
		err := huh.NewSelect[timeline.Index]().
			Title(fmt.Sprintf("Commit to %s", out.Mode)).
			Options(opts...).
			Value(&spot).
			WithTheme(styles.FormTheme()).
			Run()
		if err != nil {
			return view, err
		}
		return desk.Update(dashboard.Patch{Spot: &spot})
	}

	from, to := out.From.Index, out.To.Index
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[timeline.Index]().
				Title("From").
				Description("Commit the reviewer last saw").
				Options(opts...).
				Value(&from),
			huh.NewSelect[timeline.Index]().
				Title("To").
				Description("Commit to notify about").
				Options(opts...).
				Value(&to),
		),
	).WithTheme(styles.FormTheme()).Run()
	if err != nil {
		return view, err
	}

	return desk.Update(dashboard.Patch{From: &from, To: &to})
}

func commitLabel(c timeline.Commit) string {
	msg, _, _ := strings.Cut(c.Message, "\n")
	label := c.ShortHash() + " " + msg
	if c.HasMarkers() {
		marks := make([]string, len(c.Markers))
		for i, m := range c.Markers {
			marks[i] = string(m)
		}
		label += " [" + strings.Join(marks, ",") + "]"
	}
	return label
}

func printTimeline(out io.Writer, view dashboard.View) {
	o := view.Output

	_, _ = fmt.Fprintf(out, "%s %s\n",
		styles.HeaderStyle.Render(fmt.Sprintf("#%d %s", view.Number, o.Mode)),
		styles.MutedStyle.Render(fmt.Sprintf("(%d commits shown)", len(o.Visible))),
	)

	if len(o.Visible) == 0 {
		_, _ = fmt.Fprintln(out, "no commits")
		return
	}

	marks := handleMarks(o)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	// styled column last so escape codes do not skew alignment
	_, _ = fmt.Fprintln(w, "IDX\tHASH\tCHANGED\tMESSAGE\tSELECTION\tMARKERS")
	for _, c := range o.Visible {
		msg, _, _ := strings.Cut(c.Message, "\n")
		changed := "no"
		if c.FileChanged {
			changed = "yes"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.Index, c.ShortHash(), changed, msg, marks[c.Index], styles.Markers(c))
	}
	_ = w.Flush()

	diff := "no"
	if o.DiffEligible {
		diff = "yes"
	}
	_, _ = fmt.Fprintf(out, "\ndiff offered: %s\n", diff)
}

func handleMarks(o selection.Output) map[timeline.Index]string {
	marks := make(map[timeline.Index]string)
	switch {
	case o.Selected != nil:
		marks[o.Selected.Index] = "◀ selected"
	case o.From != nil && o.To != nil:
		if o.From.Index == o.To.Index {
			marks[o.From.Index] = "◀ from/to"
			break
		}
		marks[o.From.Index] = "◀ from"
		marks[o.To.Index] = "◀ to"
	}
	return marks
}
