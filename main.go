package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/qcdash/internal/commands"
	"github.com/colonyops/qcdash/internal/core/config"
	"github.com/colonyops/qcdash/internal/core/logging"
	"github.com/colonyops/qcdash/internal/core/styles"
	"github.com/colonyops/qcdash/internal/dashboard"
	"github.com/colonyops/qcdash/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// isConfigValidate reports whether the invocation is `config validate`,
// which must run even when the config does not load.
func isConfigValidate(c *cli.Command) bool {
	args := c.Args().Slice()
	return len(args) >= 2 && args[0] == "config" && args[1] == "validate"
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		app       = &dashboard.App{}
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "qcdash",
		Usage:     "QC dashboard for milestone health and review actions",
		UsageText: "qcdash [global options] command [command options]",
		Description: `qcdash summarizes the QC status of every issue in a milestone and drives the
notify, review and approve workflow for a single issue.

Run 'qcdash status' for milestone health.
Run 'qcdash timeline <issue>' to inspect commits and the default selection.
Run 'qcdash serve' to expose the same operations as a JSON API.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("QCDASH_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (logs to stderr when empty)",
				Sources:     cli.EnvVars("QCDASH_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("QCDASH_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				if isConfigValidate(c) {
					return ctx, nil
				}
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// validation ensures the theme exists
			palette, _ := styles.GetPalette(cfg.UI.Theme)
			styles.SetTheme(palette)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*app = *dashboard.NewApp(cfg)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	root = commands.NewStatusCmd(flags, app).Register(root)
	root = commands.NewTimelineCmd(flags, app).Register(root)
	root = commands.NewPreviewCmd(flags, app).Register(root)
	root = commands.NewPostCmd(flags, app).Register(root)
	root = commands.NewServeCmd(flags, app).Register(root)
	root = commands.NewConfigValidateCmd(flags).Register(root)

	exitCode := 0
	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
