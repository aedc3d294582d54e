package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/shared"
	"assistance-gateway/internal/domain/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (f *fakeTicker) Chan() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() { f.once.Do(func() { close(f.stopped) }) }

// tick delivers one tick; it reports false when the loop no longer listens.
func (f *fakeTicker) tick() bool {
	select {
	case f.ch <- time.Now():
		return true
	case <-f.stopped:
		return false
	case <-time.After(time.Second):
		return false
	}
}

type result struct {
	snap *tracking.Snapshot
	err  error
}

type scriptedFetcher struct {
	mu      sync.Mutex
	results []result
	calls   int
}

func (f *scriptedFetcher) GetLiveTracking(_ context.Context, requestID string) (*tracking.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		return &tracking.Snapshot{RequestID: shared.ID(requestID), Status: request.StatusAssigned}, nil
	}
	return f.results[i].snap, f.results[i].err
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestPoller(fetcher Fetcher) (*Poller, *fakeTicker) {
	ticker := newFakeTicker()
	p := NewPoller(fetcher, 10*time.Second, zap.NewNop())
	p.newTicker = func(time.Duration) Ticker { return ticker }
	return p, ticker
}

func collect() (func(Update), <-chan Update) {
	ch := make(chan Update, 16)
	return func(u Update) { ch <- u }, ch
}

func next(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
	return Update{}
}

func waitDone(t *testing.T, h *CancelHandle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerStopsOnCompleted(t *testing.T) {
	fetcher := &scriptedFetcher{results: []result{
		{snap: &tracking.Snapshot{Status: request.StatusAssigned}},
		{snap: &tracking.Snapshot{Status: request.StatusEnRoute}},
		{snap: &tracking.Snapshot{Status: request.StatusCompleted}},
	}}
	p, ticker := newTestPoller(fetcher)
	onUpdate, updates := collect()

	h := p.Start(context.Background(), "r1", request.StatusAssigned, onUpdate)

	first := next(t, updates)
	assert.True(t, first.Initial)
	assert.Equal(t, request.StatusAssigned, first.Display.Status)

	require.True(t, ticker.tick())
	second := next(t, updates)
	assert.False(t, second.Initial)
	assert.Equal(t, request.StatusEnRoute, second.Snapshot.Status)

	require.True(t, ticker.tick())
	third := next(t, updates)
	assert.True(t, third.Final)

	waitDone(t, h)
	assert.False(t, ticker.tick())
	assert.Equal(t, 3, fetcher.count())
}

func TestPollerKeepsSnapshotOnFailure(t *testing.T) {
	s1 := &tracking.Snapshot{Status: request.StatusAssigned, DistanceKm: floatPtr(5)}
	s3 := &tracking.Snapshot{Status: request.StatusEnRoute, DistanceKm: floatPtr(2)}
	fetcher := &scriptedFetcher{results: []result{
		{snap: s1},
		{err: errors.New("gateway timeout")},
		{snap: s3},
	}}
	p, ticker := newTestPoller(fetcher)
	onUpdate, updates := collect()

	h := p.Start(context.Background(), "r1", request.StatusAssigned, onUpdate)
	defer h.Cancel()
	next(t, updates)

	require.True(t, ticker.tick())
	require.Eventually(t, func() bool { return fetcher.count() == 2 }, time.Second, time.Millisecond)
	assert.Same(t, s1, h.Snapshot())

	require.True(t, ticker.tick())
	u := next(t, updates)
	assert.Same(t, s3, u.Snapshot)
	assert.Same(t, s3, h.Snapshot())
	assert.Empty(t, updates)
}

func TestPollerTerminalStatusFetchesOnce(t *testing.T) {
	fetcher := &scriptedFetcher{results: []result{{snap: &tracking.Snapshot{Status: request.StatusCompleted}}}}
	p, ticker := newTestPoller(fetcher)
	onUpdate, updates := collect()

	h := p.Start(context.Background(), "r1", request.StatusCompleted, onUpdate)
	u := next(t, updates)
	assert.True(t, u.Initial)
	assert.True(t, u.Final)

	waitDone(t, h)
	assert.False(t, ticker.tick())
	assert.Equal(t, 1, fetcher.count())
}

func TestPollerInitialFailureIsStale(t *testing.T) {
	fetcher := &scriptedFetcher{results: []result{{err: errors.New("down")}}}
	p, _ := newTestPoller(fetcher)
	onUpdate, updates := collect()

	h := p.Start(context.Background(), "r1", request.StatusPending, onUpdate)
	defer h.Cancel()

	u := next(t, updates)
	assert.True(t, u.Initial)
	assert.True(t, u.Stale)
	assert.Nil(t, u.Snapshot)
	assert.Equal(t, Calculating, u.Display.ETALabel)
}

func TestCancelStopsFetching(t *testing.T) {
	fetcher := &scriptedFetcher{}
	p, ticker := newTestPoller(fetcher)
	onUpdate, updates := collect()

	h := p.Start(context.Background(), "r1", request.StatusAssigned, onUpdate)
	next(t, updates)

	h.Cancel()
	h.Cancel()
	waitDone(t, h)

	assert.False(t, ticker.tick())
	assert.Equal(t, 1, fetcher.count())
}

type blockingFetcher struct {
	started chan struct{}
}

func (f *blockingFetcher) GetLiveTracking(ctx context.Context, _ string) (*tracking.Snapshot, error) {
	close(f.started)
	<-ctx.Done()
	return &tracking.Snapshot{Status: request.StatusArrived}, nil
}

func TestResponseAfterCancelIsDiscarded(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan struct{})}
	p, _ := newTestPoller(fetcher)
	onUpdate, updates := collect()

	h := p.Start(context.Background(), "r1", request.StatusAssigned, onUpdate)
	<-fetcher.started
	h.Cancel()
	waitDone(t, h)

	assert.Empty(t, updates)
	assert.Nil(t, h.Snapshot())
}

type slowFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *slowFetcher) GetLiveTracking(_ context.Context, requestID string) (*tracking.Snapshot, error) {
	close(f.started)
	<-f.release
	return &tracking.Snapshot{RequestID: shared.ID(requestID), Status: request.StatusArrived}, nil
}

func TestFetchIgnoringCancelDeliversNothing(t *testing.T) {
	fetcher := &slowFetcher{started: make(chan struct{}), release: make(chan struct{})}
	p, _ := newTestPoller(fetcher)
	onUpdate, updates := collect()

	h := p.Start(context.Background(), "r1", request.StatusAssigned, onUpdate)
	<-fetcher.started
	h.Cancel()
	close(fetcher.release)
	waitDone(t, h)

	assert.Empty(t, updates)
	assert.Nil(t, h.Snapshot())
}

func TestParentCancelStopsDelivery(t *testing.T) {
	fetcher := &slowFetcher{started: make(chan struct{}), release: make(chan struct{})}
	p, _ := newTestPoller(fetcher)
	onUpdate, updates := collect()

	ctx, cancel := context.WithCancel(context.Background())
	h := p.Start(ctx, "r1", request.StatusAssigned, onUpdate)
	<-fetcher.started
	cancel()
	close(fetcher.release)
	waitDone(t, h)

	assert.Empty(t, updates)
}

func TestRegistryReplacesViewPoller(t *testing.T) {
	fetcher := &scriptedFetcher{}
	p := NewPoller(fetcher, time.Hour, zap.NewNop())
	reg := NewRegistry(p)
	onUpdate, updates := collect()

	first := reg.Open(context.Background(), "view-1", "r1", request.StatusAssigned, onUpdate)
	next(t, updates)
	second := reg.Open(context.Background(), "view-1", "r2", request.StatusAssigned, onUpdate)
	next(t, updates)

	waitDone(t, first)
	got, ok := reg.Get("view-1")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, reg.Len())

	other := reg.Open(context.Background(), "view-2", "r3", request.StatusAssigned, onUpdate)
	next(t, updates)
	assert.Equal(t, 2, reg.Len())

	assert.True(t, reg.Close("view-1"))
	assert.False(t, reg.Close("view-1"))
	waitDone(t, second)

	reg.CloseAll()
	waitDone(t, other)
	assert.Equal(t, 0, reg.Len())
}
