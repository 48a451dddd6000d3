package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qcdash/internal/core/logging"
	"github.com/colonyops/qcdash/internal/dashboard"
	"github.com/colonyops/qcdash/internal/web"
)

type ServeCmd struct {
	flags *Flags
	app   *dashboard.App

	// flags
	addr  string
	pprof bool
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *dashboard.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the dashboard JSON API",
		UsageText: "qcdash serve [--addr host:port]",
		Description: `Starts the JSON API used by dashboard frontends.

The server holds a single review session. Opening another issue replaces it.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (overrides server.addr)",
				Sources:     cli.EnvVars("QCDASH_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.BoolFlag{
				Name:        "pprof",
				Usage:       "expose pprof handlers under /debug/pprof",
				Sources:     cli.EnvVars("QCDASH_PPROF"),
				Destination: &cmd.pprof,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config

	addr := cfg.Server.Addr
	if cmd.addr != "" {
		addr = cmd.addr
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go cmd.app.Statuses.SweepEvery(ctx, cfg.Status.CacheTTL)

	var opts []web.Option
	if cmd.pprof {
		opts = append(opts, web.WithProfiler())
	}

	srv := web.New(
		cmd.app.Service,
		cmd.app.Desk,
		cfg.Milestones,
		cfg.Server.RequestTimeout,
		logging.Component("web"),
		opts...,
	)

	return srv.ListenAndServe(ctx, addr)
}
