package dashboard

import (
	"github.com/colonyops/qcdash/internal/core/config"
	"github.com/colonyops/qcdash/internal/core/logging"
	"github.com/colonyops/qcdash/internal/core/status"
	"github.com/colonyops/qcdash/internal/tracker"
	"github.com/colonyops/qcdash/pkg/kv"
)

// App is the central entry point for dashboard operations.
// Commands and the web server consume App instead of cherry-picking raw
// dependencies.
type App struct {
	Config   *config.Config
	Tracker  *tracker.Client
	Statuses *status.Loader
	Service  *Service
	Desk     *Desk
}

// NewApp wires the tracker client, status batching and caching, and the
// services from cfg.
func NewApp(cfg *config.Config) *App {
	client := tracker.New(cfg.Tracker.BaseURL, cfg.Tracker.Timeout, logging.Component("tracker"))

	batcher := status.NewBatcher(client,
		status.WithScheduler(status.TimerScheduler{Window: cfg.Status.BatchWindow}),
		status.WithLogger(logging.Component("status")),
	)
	loader := status.NewLoader(batcher, kv.New[int, status.IssueStatus](kv.WithTTL(cfg.Status.CacheTTL)))

	return &App{
		Config:   cfg,
		Tracker:  client,
		Statuses: loader,
		Service:  NewService(client, loader, cfg.Milestones.FetchWorkers, logging.Component("dashboard")),
		Desk:     NewDesk(client, loader, logging.Component("desk")),
	}
}
