package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/qcdash/internal/core/styles"
	"github.com/colonyops/qcdash/internal/dashboard"
)

type PreviewCmd struct {
	flags *Flags
	app   *dashboard.App

	// flags
	sel selectionFlags
	raw bool
}

// NewPreviewCmd creates a new preview command
func NewPreviewCmd(flags *Flags, app *dashboard.App) *PreviewCmd {
	return &PreviewCmd{flags: flags, app: app}
}

// Register adds the preview command to the application
func (cmd *PreviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "preview",
		Usage:     "Preview the comment an action would post",
		UsageText: "qcdash preview <issue> [--mode notify|review|approve] [--from n --to n | --spot n] [--raw]",
		Description: `Renders the comment the backend would post for the selection, without
posting it. Markdown is rendered for the terminal unless --raw is set or
stdout is not a terminal.`,
		Flags: append(cmd.sel.flags(),
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print markdown without rendering",
				Destination: &cmd.raw,
			},
		),
		ShellComplete: IssueCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *PreviewCmd) run(ctx context.Context, c *cli.Command) error {
	if _, err := openReview(ctx, cmd.app, c.Args().First(), &cmd.sel); err != nil {
		return err
	}
	defer cmd.app.Desk.Close()

	md, err := cmd.app.Desk.Preview(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.raw || !isTerminal(os.Stdout) {
		_, _ = fmt.Fprintln(out, md)
		return nil
	}

	_, _ = fmt.Fprint(out, renderMarkdown(md))
	return nil
}

// renderMarkdown renders md with the active theme, falling back to the raw
// text when rendering fails.
func renderMarkdown(md string) string {
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Debug().Err(err).Msg("failed to create markdown renderer, showing raw content")
		return md + "\n"
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		log.Debug().Err(err).Msg("failed to render markdown, showing raw content")
		return md + "\n"
	}
	return rendered
}
