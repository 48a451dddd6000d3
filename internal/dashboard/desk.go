package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/qcdash/internal/core/latest"
	"github.com/colonyops/qcdash/internal/core/logging"
	"github.com/colonyops/qcdash/internal/core/selection"
	"github.com/colonyops/qcdash/internal/core/status"
	"github.com/colonyops/qcdash/internal/core/timeline"
	"github.com/colonyops/qcdash/internal/tracker"
)

var (
	// ErrNoSession is returned when no review is open.
	ErrNoSession = errors.New("no review session open")
	// ErrSuperseded is returned for a preview whose request was overtaken by
	// a newer one. Its result was discarded.
	ErrSuperseded = errors.New("preview superseded by a newer request")
	// ErrIncompleteRange is returned for a patch that sets only one end of a
	// range.
	ErrIncompleteRange = errors.New("from and to must be set together")
)

// Patch changes an open review. Nil fields are left alone. From/To set a
// range; Spot sets a single commit.
type Patch struct {
	ShowAll *bool           `json:"show_all,omitempty"`
	Dirty   *bool           `json:"dirty,omitempty"`
	From    *timeline.Index `json:"from,omitempty"`
	To      *timeline.Index `json:"to,omitempty"`
	Spot    *timeline.Index `json:"spot,omitempty"`
}

// View is the state of the open review.
type View struct {
	Number  int              `json:"number"`
	Output  selection.Output `json:"selection"`
	Preview string           `json:"preview,omitempty"`

	// StatusError is set in review mode when the item's QC status could not
	// be read. The working copy is then treated as clean on open and keeps
	// its previous state on refresh.
	StatusError string `json:"status_error,omitempty"`
}

type review struct {
	number  int
	session *selection.Session
	preview string

	// statusErr records why the working-copy state could not be read.
	statusErr string
}

// Desk holds the single open review session. Opening another item replaces
// it. Previews go through a latest.Guard so an older response never
// overwrites a newer one; every change to the session issues a new token.
//
// Lock order is mu, then the guard.
type Desk struct {
	tracker  Tracker
	statuses *status.Loader
	log      zerolog.Logger

	mu    sync.Mutex
	cur   *review
	guard latest.Guard
}

// NewDesk creates an empty Desk.
func NewDesk(t Tracker, statuses *status.Loader, log zerolog.Logger) *Desk {
	return &Desk{tracker: t, statuses: statuses, log: log}
}

// Open fetches an item's commits and starts a session in mode with the
// mode's defaults. Any previous session and any in-flight preview are
// dropped.
func (d *Desk) Open(ctx context.Context, number int, mode selection.Mode) (View, error) {
	ctx = logging.WithIssue(ctx, number)

	if _, err := selection.ParseMode(string(mode)); err != nil {
		return View{}, err
	}

	commits, err := d.tracker.Commits(ctx, number)
	if err != nil {
		return View{}, fmt.Errorf("fetch commits for #%d: %w", number, err)
	}

	sess, err := selection.Open(mode, timeline.Normalize(commits))
	if err != nil {
		return View{}, err
	}

	r := &review{number: number, session: sess}
	if mode == selection.ModeReview {
		dirty, msg := d.dirty(ctx, number, false)
		sess.SetDirty(dirty)
		r.statusErr = msg
	}

	d.mu.Lock()
	d.cur = r
	d.guard.Next()
	view := r.view()
	d.mu.Unlock()

	d.log.Debug().Ctx(ctx).
		Str("mode", string(mode)).
		Int("commits", sess.Timeline().Len()).
		Msg("review opened")

	return view, nil
}

// Current returns the open review.
func (d *Desk) Current() (View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cur == nil {
		return View{}, ErrNoSession
	}
	return d.cur.view(), nil
}

// dirty reads the item's working-copy state from its QC status. When the
// status is unavailable, fallback is kept and the reason returned.
func (d *Desk) dirty(ctx context.Context, number int, fallback bool) (bool, string) {
	o := d.statuses.Get(ctx, number)
	if o.Failed() {
		d.log.Warn().Ctx(ctx).Str("reason", o.Message()).Msg("status unavailable, keeping working copy state")
		return fallback, o.Message()
	}
	return o.Result.Status.Dirty, ""
}

// Update applies p to the open review. A range on a spot mode keeps only To.
// Any preview of the previous selection is dropped.
func (d *Desk) Update(p Patch) (View, error) {
	if p.Spot == nil && (p.From == nil) != (p.To == nil) {
		return View{}, ErrIncompleteRange
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cur == nil {
		return View{}, ErrNoSession
	}

	s := d.cur.session
	if p.ShowAll != nil {
		s.SetShowAll(*p.ShowAll)
	}
	if p.Dirty != nil {
		s.SetDirty(*p.Dirty)
	}

	switch {
	case p.Spot != nil:
		s.SetSpot(*p.Spot)
	case p.From != nil && p.To != nil:
		s.SetRange(*p.From, *p.To)
	}

	d.supersede()
	return d.cur.view(), nil
}

// supersede invalidates in-flight previews and the stored one. Callers hold mu.
func (d *Desk) supersede() {
	d.guard.Next()
	if d.cur != nil {
		d.cur.preview = ""
	}
}

// Refresh refetches the open item's commits. The stored selection is kept
// and resnapped onto the new data.
func (d *Desk) Refresh(ctx context.Context) (View, error) {
	d.mu.Lock()
	r := d.cur
	d.mu.Unlock()

	if r == nil {
		return View{}, ErrNoSession
	}

	ctx = logging.WithIssue(ctx, r.number)

	commits, err := d.tracker.Commits(ctx, r.number)
	if err != nil {
		return View{}, fmt.Errorf("fetch commits for #%d: %w", r.number, err)
	}

	inReview := r.session.Mode() == selection.ModeReview
	var (
		dirty     bool
		statusErr string
	)
	if inReview {
		d.statuses.Invalidate(r.number)
		d.mu.Lock()
		prev := r.session.Dirty()
		d.mu.Unlock()
		dirty, statusErr = d.dirty(ctx, r.number, prev)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur != r {
		return View{}, ErrNoSession
	}
	r.session.Replace(timeline.Normalize(commits))
	if inReview {
		r.session.SetDirty(dirty)
		r.statusErr = statusErr
	}
	d.supersede()
	return r.view(), nil
}

// Close drops the open review. In-flight previews are discarded.
func (d *Desk) Close() {
	d.mu.Lock()
	d.cur = nil
	d.guard.Next()
	d.mu.Unlock()
}

// Preview renders the comment for the displayed selection. When the
// selection changes, or a newer preview or session starts, before the
// backend answers, the answer is discarded and ErrSuperseded returned.
func (d *Desk) Preview(ctx context.Context) (string, error) {
	d.mu.Lock()
	r := d.cur
	if r == nil {
		d.mu.Unlock()
		return "", ErrNoSession
	}
	action := tracker.ActionFor(r.session.Resolve(), "")
	tok := d.guard.Next()
	d.mu.Unlock()

	ctx = logging.WithIssue(ctx, r.number)

	md, err := d.tracker.Preview(ctx, r.number, action)
	if err != nil {
		if !d.guard.Current(tok) {
			return "", ErrSuperseded
		}
		return "", fmt.Errorf("preview #%d: %w", r.number, err)
	}

	d.mu.Lock()
	applied := d.guard.Apply(tok, func() { r.preview = md })
	d.mu.Unlock()
	if !applied {
		d.log.Debug().Ctx(ctx).Uint64("token", uint64(tok)).Msg("stale preview dropped")
		return "", ErrSuperseded
	}

	return md, nil
}

// Post sends the workflow action for the displayed selection and drops the
// item's cached status so the next lookup sees the change.
func (d *Desk) Post(ctx context.Context, comment string) (tracker.PostResult, error) {
	d.mu.Lock()
	r := d.cur
	if r == nil {
		d.mu.Unlock()
		return tracker.PostResult{}, ErrNoSession
	}
	out := r.session.Resolve()
	d.mu.Unlock()

	ctx = logging.WithIssue(ctx, r.number)

	if _, ok := out.Resolved(); !ok {
		return tracker.PostResult{}, fmt.Errorf("#%d has no commits to %s", r.number, out.Mode)
	}

	res, err := d.tracker.Post(ctx, r.number, tracker.ActionFor(out, comment))
	if err != nil {
		return tracker.PostResult{}, fmt.Errorf("post %s for #%d: %w", out.Mode, r.number, err)
	}

	d.statuses.Invalidate(r.number)
	d.log.Info().Ctx(ctx).Str("mode", string(out.Mode)).Str("url", res.URL).Msg("action posted")

	return res, nil
}

func (r *review) view() View {
	return View{
		Number:      r.number,
		Output:      r.session.Resolve(),
		Preview:     r.preview,
		StatusError: r.statusErr,
	}
}
