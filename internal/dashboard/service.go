// Package dashboard wires the selection engine, the status layer and the
// tracker client into the operations the dashboard exposes.
package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/qcdash/internal/core/logging"
	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/status"
	"github.com/colonyops/qcdash/internal/core/timeline"
	"github.com/colonyops/qcdash/internal/tracker"
)

// Tracker is the subset of the backend client the dashboard calls.
type Tracker interface {
	ListIssues(ctx context.Context, name string) ([]milestone.Item, error)
	Commits(ctx context.Context, number int) ([]timeline.ProviderCommit, error)
	Preview(ctx context.Context, number int, action tracker.Action) (string, error)
	Post(ctx context.Context, number int, action tracker.Action) (tracker.PostResult, error)
}

// Service computes milestone health and performs item-level actions.
type Service struct {
	tracker  Tracker
	statuses *status.Loader
	workers  int
	log      zerolog.Logger
}

// NewService creates a Service. workers bounds concurrent list fetches.
func NewService(t Tracker, statuses *status.Loader, workers int, log zerolog.Logger) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{tracker: t, statuses: statuses, workers: workers, log: log}
}

// MilestoneReports fetches each milestone's issue list, looks up the status
// of every relevant issue in one pass and aggregates per milestone. A
// failing milestone never stops the others.
func (s *Service) MilestoneReports(ctx context.Context, names []string, include milestone.Inclusion) []milestone.Report {
	if include == nil {
		include = milestone.AllItems
	}

	start := time.Now()
	lists := s.fetchLists(ctx, names)

	var numbers []int
	for _, l := range lists {
		if l.Err != nil {
			continue
		}
		for _, it := range l.Items {
			if include(it) {
				numbers = append(numbers, it.Number)
			}
		}
	}

	outcomes := s.statuses.Load(ctx, numbers)

	reports := make([]milestone.Report, len(names))
	for i, name := range names {
		statuses := make(map[int]milestone.StatusOutcome)
		for _, it := range lists[i].Items {
			if o, ok := outcomes[it.Number]; ok && include(it) {
				statuses[it.Number] = milestone.FromLoaded(o)
			}
		}

		info := milestone.Aggregate(lists[i], statuses, include)
		reports[i] = milestone.Report{Name: name, Items: lists[i].Items, Info: info}

		ev := s.log.Debug()
		if h := info.Health(); h != milestone.HealthHealthy {
			ev = s.log.Warn()
		}
		ev.Ctx(logging.WithMilestone(ctx, name)).
			Str("health", string(info.Health())).
			Int("attempted", info.StatusAttemptedCount).
			Int("errors", info.StatusErrorCount).
			Msg("milestone status aggregated")
	}

	s.log.Debug().
		Int("milestones", len(names)).
		Int("issues", len(numbers)).
		Dur("elapsed", time.Since(start)).
		Msg("milestone reports built")

	return reports
}

func (s *Service) fetchLists(ctx context.Context, names []string) []milestone.ListOutcome {
	lists := make([]milestone.ListOutcome, len(names))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, name := range names {
		g.Go(func() error {
			items, err := s.tracker.ListIssues(ctx, name)
			if err != nil {
				s.log.Warn().Err(err).Ctx(logging.WithMilestone(ctx, name)).Msg("list issues failed")
			}
			lists[i] = milestone.ListOutcome{Items: items, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return lists
}

// Gate builds reports and splits them for an aggregate downstream operation.
func (s *Service) Gate(ctx context.Context, names []string, include milestone.Inclusion) milestone.Gating {
	return milestone.Gate(s.MilestoneReports(ctx, names, include))
}

// IssueStatus returns one issue's status through the cache.
func (s *Service) IssueStatus(ctx context.Context, number int) status.Outcome {
	return s.statuses.Get(ctx, number)
}

// Unapprove withdraws an approval. It needs no selection.
func (s *Service) Unapprove(ctx context.Context, number int, comment string) (tracker.PostResult, error) {
	res, err := s.tracker.Post(ctx, number, tracker.Action{Kind: tracker.ActionUnapprove, Comment: comment})
	if err != nil {
		return tracker.PostResult{}, err
	}
	s.statuses.Invalidate(number)
	return res, nil
}
