package status

import (
	"context"
	"time"

	"github.com/colonyops/qcdash/pkg/kv"
)

// Outcome is what a Loader reports per issue. Err is set only when the
// batch call itself failed or the caller's context ended.
type Outcome struct {
	Result Result
	Err    error
}

// Failed reports whether the issue has no usable status.
func (o Outcome) Failed() bool {
	return o.Err != nil || !o.Result.OK()
}

// Message returns the failure text, or "" on success.
func (o Outcome) Message() string {
	switch {
	case o.Err != nil:
		return o.Err.Error()
	case o.Result.Failure != nil:
		return o.Result.Failure.Message
	default:
		return ""
	}
}

// Loader answers from the cache when it can and sends every miss to the
// Batcher in one pass. Only successes are cached.
type Loader struct {
	batcher *Batcher
	cache   *kv.Store[int, IssueStatus]
}

// NewLoader creates a Loader.
func NewLoader(b *Batcher, cache *kv.Store[int, IssueStatus]) *Loader {
	return &Loader{batcher: b, cache: cache}
}

// Load returns one outcome per distinct number.
func (l *Loader) Load(ctx context.Context, numbers []int) map[int]Outcome {
	hits, misses := l.cache.GetMany(numbers)

	out := make(map[int]Outcome, len(hits)+len(misses))
	for n, st := range hits {
		s := st
		out[n] = Outcome{Result: Result{Number: n, Status: &s}}
	}

	fresh := make(map[int]IssueStatus, len(misses))
	for _, p := range l.batcher.RequestMany(misses) {
		r, err := p.Wait(ctx)
		if err == nil && r.OK() {
			fresh[p.Number()] = *r.Status
		}
		out[p.Number()] = Outcome{Result: r, Err: err}
	}
	l.cache.SetBatch(fresh)

	return out
}

// SweepEvery drops expired cache entries every interval until ctx ends.
// A non-positive interval returns at once.
func (l *Loader) SweepEvery(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cache.Sweep()
		}
	}
}

// Get loads a single issue.
func (l *Loader) Get(ctx context.Context, number int) Outcome {
	return l.Load(ctx, []int{number})[number]
}

// Invalidate drops cached statuses so the next Load refetches them.
func (l *Loader) Invalidate(numbers ...int) {
	l.cache.Delete(numbers...)
}
