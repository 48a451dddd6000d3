package status

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Pending is a caller's handle on one requested issue.
type Pending struct {
	number int
	done   chan struct{}
	once   sync.Once
	result Result
	err    error
}

func newPending(number int) *Pending {
	return &Pending{number: number, done: make(chan struct{})}
}

// Number returns the requested issue number.
func (p *Pending) Number() int { return p.number }

// Done is closed once the request resolves.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the request resolves or ctx is done. A non-nil error
// means the batch call itself failed; per-issue failures arrive as
// Result.Failure.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return Result{Number: p.number}, ctx.Err()
	}
}

func (p *Pending) resolve(r Result, err error) {
	p.once.Do(func() {
		p.result, p.err = r, err
		close(p.done)
	})
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithScheduler replaces the default zero-delay timer scheduler.
func WithScheduler(s Scheduler) Option {
	return func(b *Batcher) { b.sched = s }
}

// WithLogger sets the logger used for dispatch events.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Batcher) { b.log = l }
}

// WithContext sets the context batch calls run under. Batch calls are not
// tied to any single caller, so a caller giving up does not cancel its
// siblings.
func WithContext(ctx context.Context) Option {
	return func(b *Batcher) { b.ctx = ctx }
}

// Batcher collects status requests made before its scheduler fires and sends
// them as one Fetcher call. It performs no caching.
type Batcher struct {
	fetcher Fetcher
	sched   Scheduler
	log     zerolog.Logger
	ctx     context.Context

	mu      sync.Mutex
	pending map[int][]*Pending
	order   []int
	armed   bool
}

// NewBatcher creates a Batcher over fetcher.
func NewBatcher(fetcher Fetcher, opts ...Option) *Batcher {
	b := &Batcher{
		fetcher: fetcher,
		sched:   TimerScheduler{},
		log:     zerolog.Nop(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Request queues a lookup for number. The first request of a batch arms the
// scheduler; later ones join until dispatch.
func (b *Batcher) Request(number int) *Pending {
	return b.RequestMany([]int{number})[0]
}

// RequestMany queues several lookups at once. They always land in the same
// batch.
func (b *Batcher) RequestMany(numbers []int) []*Pending {
	if len(numbers) == 0 {
		return nil
	}

	out := make([]*Pending, len(numbers))

	b.mu.Lock()
	if b.pending == nil {
		b.pending = make(map[int][]*Pending)
	}
	for i, n := range numbers {
		p := newPending(n)
		if _, ok := b.pending[n]; !ok {
			b.order = append(b.order, n)
		}
		b.pending[n] = append(b.pending[n], p)
		out[i] = p
	}
	arm := !b.armed
	b.armed = true
	b.mu.Unlock()

	if arm {
		b.sched.Schedule(b.Dispatch)
	}
	return out
}

// Dispatch sends the current batch. The pending map is swapped for a fresh
// one before the call, so requests made while it is in flight start a new
// batch. Calling Dispatch with nothing pending is a no-op.
func (b *Batcher) Dispatch() {
	b.mu.Lock()
	batch, order := b.pending, b.order
	b.pending, b.order, b.armed = nil, nil, false
	b.mu.Unlock()

	if len(order) == 0 {
		return
	}

	log := b.log.With().
		Str("batch", uuid.NewString()).
		Int("size", len(order)).
		Logger()

	log.Debug().Ints("issues", order).Msg("dispatching status batch")

	resp, err := b.fetcher.FetchStatuses(b.ctx, order)
	if err != nil {
		log.Warn().Err(err).Msg("status batch failed")
		err = fmt.Errorf("fetch statuses: %w", err)
		for n, waiters := range batch {
			for _, p := range waiters {
				p.resolve(Result{Number: n}, err)
			}
		}
		return
	}

	resolved := make(map[int]bool, len(order))

	for _, st := range resp.Results {
		waiters, ok := batch[st.Number]
		if !ok || resolved[st.Number] {
			continue
		}
		resolved[st.Number] = true
		for _, p := range waiters {
			s := st
			p.resolve(Result{Number: st.Number, Status: &s}, nil)
		}
	}

	for _, se := range resp.Errors {
		waiters, ok := batch[se.Number]
		if !ok || resolved[se.Number] {
			continue
		}
		resolved[se.Number] = true
		for _, p := range waiters {
			p.resolve(Result{
				Number:  se.Number,
				Failure: &Failure{Kind: FailureProcessing, Message: se.Error},
			}, nil)
		}
	}

	missing := 0
	for _, n := range order {
		if resolved[n] {
			continue
		}
		missing++
		for _, p := range batch[n] {
			p.resolve(Result{
				Number:  n,
				Failure: &Failure{Kind: FailureNotReturned, Message: "status not returned by server"},
			}, nil)
		}
	}

	log.Debug().
		Int("results", len(resp.Results)).
		Int("errors", len(resp.Errors)).
		Int("missing", missing).
		Msg("status batch resolved")
}
