package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/qcdash/internal/core/styles"
	"github.com/colonyops/qcdash/internal/dashboard"
	"github.com/colonyops/qcdash/internal/printer"
	"github.com/colonyops/qcdash/internal/tracker"
)

type PostCmd struct {
	flags *Flags
	app   *dashboard.App

	// flags
	sel     selectionFlags
	comment string
	yes     bool
}

// NewPostCmd creates a new post command
func NewPostCmd(flags *Flags, app *dashboard.App) *PostCmd {
	return &PostCmd{flags: flags, app: app}
}

// Register adds the post and unapprove commands to the application
func (cmd *PostCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "post",
			Usage:     "Post a notification, review or approval",
			UsageText: "qcdash post <issue> [--mode notify|review|approve] [--from n --to n | --spot n] [--comment text] [--yes]",
			Description: `Posts the workflow action for the selection to the issue. The rendered
comment is shown first and must be confirmed unless --yes is set.

The issue's cached status is dropped afterwards so the next status lookup
sees the change.`,
			Flags:         append(cmd.sel.flags(), cmd.postFlags()...),
			ShellComplete: IssueCompleter(cmd.app),
			Action:        cmd.run,
		},
		&cli.Command{
			Name:      "unapprove",
			Usage:     "Withdraw an approval",
			UsageText: "qcdash unapprove <issue-number> [--comment text] [--yes]",
			Flags:         cmd.postFlags(),
			ShellComplete: IssueCompleter(cmd.app),
			Action:        cmd.runUnapprove,
		},
	)

	return app
}

func (cmd *PostCmd) postFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "comment",
			Usage:       "extra text appended to the posted comment",
			Destination: &cmd.comment,
		},
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "skip the confirmation prompt",
			Destination: &cmd.yes,
		},
	}
}

func (cmd *PostCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	view, err := openReview(ctx, cmd.app, c.Args().First(), &cmd.sel)
	if err != nil {
		return err
	}
	defer cmd.app.Desk.Close()

	if !cmd.yes {
		md, err := cmd.app.Desk.Preview(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(c.Root().Writer, renderMarkdown(md))

		ok, err := confirm(fmt.Sprintf("Post %s to #%d?", view.Output.Mode, view.Number))
		if err != nil {
			return err
		}
		if !ok {
			p.Infof("Post cancelled")
			return nil
		}
	}

	res, err := cmd.app.Desk.Post(ctx, cmd.comment)
	if err != nil {
		return err
	}

	p.Successf("Posted %s to #%d %s", view.Output.Mode, view.Number, styles.MutedStyle.Render(res.URL))
	return nil
}

func (cmd *PostCmd) runUnapprove(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	number, err := strconv.Atoi(strings.TrimPrefix(c.Args().First(), "#"))
	if err != nil {
		return fmt.Errorf("issue number is required: %w", err)
	}

	if !cmd.yes {
		ok, err := confirm(fmt.Sprintf("Withdraw the approval of #%d?", number))
		if err != nil {
			return err
		}
		if !ok {
			p.Infof("Unapprove cancelled")
			return nil
		}
	}

	res, err := cmd.app.Service.Unapprove(ctx, number, cmd.comment)
	if err != nil {
		if tracker.IsNotFound(err) {
			return fmt.Errorf("issue #%d not found", number)
		}
		return err
	}

	p.Successf("Unapproved #%d %s", number, styles.MutedStyle.Render(res.URL))
	return nil
}

// confirm asks a yes/no question. Without a terminal it refuses rather than
// posting silently.
func confirm(title string) (bool, error) {
	if !isTerminal(os.Stdin) {
		return false, errors.New("refusing to post without confirmation: stdin is not a terminal, use --yes")
	}

	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Post").
		Negative("Cancel").
		Value(&ok).
		WithTheme(styles.FormTheme()).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
