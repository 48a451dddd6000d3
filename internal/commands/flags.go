package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/qcdash/internal/core/config"
	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/selection"
	"github.com/colonyops/qcdash/internal/core/timeline"
	"github.com/colonyops/qcdash/internal/dashboard"
	"github.com/colonyops/qcdash/internal/printer"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "qcdash", "config.yaml")
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// selectionFlags are shared by commands that act on a review selection.
type selectionFlags struct {
	mode    string
	showAll bool
	from    int
	to      int
	spot    int
}

func (sf *selectionFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"m"},
			Usage:       "review mode (notify, review, approve)",
			Value:       string(selection.ModeNotify),
			Destination: &sf.mode,
		},
		&cli.BoolFlag{
			Name:        "all",
			Usage:       "show commits that are hidden by default",
			Destination: &sf.showAll,
		},
		&cli.IntFlag{
			Name:        "from",
			Usage:       "range start as a timeline index (0 is the oldest commit)",
			Value:       -1,
			Destination: &sf.from,
		},
		&cli.IntFlag{
			Name:        "to",
			Usage:       "range end as a timeline index",
			Value:       -1,
			Destination: &sf.to,
		},
		&cli.IntFlag{
			Name:        "spot",
			Usage:       "single commit as a timeline index",
			Value:       -1,
			Destination: &sf.spot,
		},
	}
}

// patch turns the flags into a desk patch. Unset indices leave the mode
// defaults in place.
func (sf *selectionFlags) patch() (dashboard.Patch, error) {
	p := dashboard.Patch{ShowAll: &sf.showAll}

	switch {
	case sf.spot >= 0:
		i := timeline.Index(sf.spot)
		p.Spot = &i
	case sf.from >= 0 && sf.to >= 0:
		from, to := timeline.Index(sf.from), timeline.Index(sf.to)
		p.From, p.To = &from, &to
	case sf.from >= 0 || sf.to >= 0:
		return p, errors.New("--from and --to must be used together")
	}

	return p, nil
}

// openReview resolves the item query and opens a review with the flags
// applied.
func openReview(ctx context.Context, app *dashboard.App, query string, sf *selectionFlags) (dashboard.View, error) {
	mode, err := selection.ParseMode(sf.mode)
	if err != nil {
		return dashboard.View{}, err
	}

	number, err := resolveIssue(ctx, app, query)
	if err != nil {
		return dashboard.View{}, err
	}

	view, err := app.Desk.Open(ctx, number, mode)
	if err != nil {
		return dashboard.View{}, err
	}
	if view.StatusError != "" {
		printer.Ctx(ctx).Warnf("status of #%d unavailable (%s), assuming a clean working copy", number, view.StatusError)
	}

	p, err := sf.patch()
	if err != nil {
		return dashboard.View{}, err
	}
	return app.Desk.Update(p)
}

// resolveIssue accepts "12", "#12" or a fuzzy query over the items of the
// configured milestones.
func resolveIssue(ctx context.Context, app *dashboard.App, query string) (int, error) {
	if query == "" {
		return 0, errors.New("issue number or search query is required")
	}

	if n, err := strconv.Atoi(strings.TrimPrefix(query, "#")); err == nil {
		return n, nil
	}

	names := app.Config.Milestones.Names
	if len(names) == 0 {
		return 0, fmt.Errorf("cannot search for %q: no milestones configured", query)
	}

	var items []milestone.Item
	for _, name := range names {
		found, err := app.Tracker.ListIssues(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("list milestone %q: %w", name, err)
		}
		items = append(items, found...)
	}

	it, err := dashboard.FindItem(items, query)
	if err != nil {
		return 0, err
	}
	return it.Number, nil
}
