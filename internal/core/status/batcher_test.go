package status

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFetcher records every batch and answers with respond.
type recordingFetcher struct {
	mu      sync.Mutex
	calls   [][]int
	respond func(numbers []int) (BatchResponse, error)
}

func (f *recordingFetcher) FetchStatuses(_ context.Context, numbers []int) (BatchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]int(nil), numbers...))
	f.mu.Unlock()
	return f.respond(numbers)
}

func (f *recordingFetcher) Calls() [][]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func allOK(numbers []int) (BatchResponse, error) {
	var resp BatchResponse
	for _, n := range numbers {
		resp.Results = append(resp.Results, IssueStatus{Number: n, QCStatus: "approved"})
	}
	return resp, nil
}

func waitAll(t *testing.T, ps ...*Pending) []Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out := make([]Result, len(ps))
	for i, p := range ps {
		r, err := p.Wait(ctx)
		require.NoError(t, err)
		out[i] = r
	}
	return out
}

func TestBatcher_CoalescesSamePass(t *testing.T) {
	f := &recordingFetcher{respond: allOK}
	sched := &ManualScheduler{}
	b := NewBatcher(f, WithScheduler(sched))

	p1 := b.Request(1)
	p2 := b.Request(2)
	p3 := b.Request(3)

	assert.Equal(t, 1, sched.Pending(), "only the first request arms a dispatch")
	assert.Empty(t, f.Calls())

	sched.Flush()

	require.Len(t, f.Calls(), 1)
	assert.Equal(t, []int{1, 2, 3}, f.Calls()[0])

	for i, r := range waitAll(t, p1, p2, p3) {
		require.True(t, r.OK())
		assert.Equal(t, i+1, r.Status.Number)
	}
}

func TestBatcher_LaterPassStartsNewBatch(t *testing.T) {
	f := &recordingFetcher{respond: allOK}
	sched := &ManualScheduler{}
	b := NewBatcher(f, WithScheduler(sched))

	p1 := b.Request(1)
	sched.Flush()
	p2 := b.Request(2)
	sched.Flush()

	waitAll(t, p1, p2)
	assert.Equal(t, [][]int{{1}, {2}}, f.Calls())
}

func TestBatcher_RequestDuringDispatchJoinsNextBatch(t *testing.T) {
	sched := &ManualScheduler{}
	var b *Batcher
	var late *Pending

	f := &recordingFetcher{}
	f.respond = func(numbers []int) (BatchResponse, error) {
		if late == nil {
			late = b.Request(99)
		}
		return allOK(numbers)
	}
	b = NewBatcher(f, WithScheduler(sched))

	first := b.Request(1)
	sched.Flush()

	waitAll(t, first)
	require.NotNil(t, late)
	assert.Equal(t, 1, sched.Pending(), "in-flight request arms a fresh batch")

	sched.Flush()
	r := waitAll(t, late)
	assert.True(t, r[0].OK())
	assert.Equal(t, [][]int{{1}, {99}}, f.Calls())
}

func TestBatcher_CompletenessGuarantee(t *testing.T) {
	f := &recordingFetcher{respond: func([]int) (BatchResponse, error) {
		return BatchResponse{
			Results: []IssueStatus{{Number: 1}, {Number: 1}, {Number: 42}},
			Errors:  []StatusError{{Number: 2, Error: "checklist unreadable"}, {Number: 1, Error: "late"}},
		}, nil
	}}
	b := NewBatcher(f, WithScheduler(Immediate))

	ps := b.RequestMany([]int{1, 2, 3})
	rs := waitAll(t, ps...)

	assert.True(t, rs[0].OK())
	assert.Nil(t, rs[0].Failure, "first entry for an id wins")

	require.NotNil(t, rs[1].Failure)
	assert.Equal(t, FailureProcessing, rs[1].Failure.Kind)
	assert.Equal(t, "checklist unreadable", rs[1].Failure.Message)

	require.NotNil(t, rs[2].Failure)
	assert.Equal(t, FailureNotReturned, rs[2].Failure.Kind)
	assert.Equal(t, 3, rs[2].Number)
}

func TestBatcher_EveryCallerResolvesOnce(t *testing.T) {
	f := &recordingFetcher{respond: func([]int) (BatchResponse, error) {
		return BatchResponse{}, nil
	}}
	sched := &ManualScheduler{}
	b := NewBatcher(f, WithScheduler(sched))

	a := b.Request(7)
	c := b.Request(7)
	sched.Flush()

	assert.Equal(t, [][]int{{7}}, f.Calls(), "duplicate ids are sent once")
	for _, r := range waitAll(t, a, c) {
		require.NotNil(t, r.Failure)
		assert.Equal(t, FailureNotReturned, r.Failure.Kind)
	}

	// a second resolution attempt must not change the first
	a.resolve(Result{Number: 7, Status: &IssueStatus{Number: 7}}, nil)
	r, err := a.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, r.OK())
}

func TestBatcher_NetworkFailureRejectsBatch(t *testing.T) {
	boom := errors.New("connection refused")
	f := &recordingFetcher{respond: func([]int) (BatchResponse, error) {
		return BatchResponse{}, boom
	}}
	b := NewBatcher(f, WithScheduler(Immediate))

	for _, p := range b.RequestMany([]int{1, 2}) {
		_, err := p.Wait(context.Background())
		require.ErrorIs(t, err, boom)
	}
}

func TestBatcher_DispatchWithNothingPending(t *testing.T) {
	f := &recordingFetcher{respond: allOK}
	b := NewBatcher(f)

	b.Dispatch()

	assert.Empty(t, f.Calls())
	assert.Nil(t, b.RequestMany(nil))
}

func TestBatcher_TimerScheduler(t *testing.T) {
	f := &recordingFetcher{respond: allOK}
	b := NewBatcher(f, WithScheduler(TimerScheduler{Window: 10 * time.Millisecond}))

	ps := b.RequestMany([]int{1, 2})
	waitAll(t, ps...)

	assert.Len(t, f.Calls(), 1)
}

func TestPending_WaitHonorsContext(t *testing.T) {
	b := NewBatcher(&recordingFetcher{respond: allOK}, WithScheduler(&ManualScheduler{}))
	p := b.Request(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := p.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, r.Number)

	select {
	case <-p.Done():
		t.Fatal("request should still be pending")
	default:
	}
}
