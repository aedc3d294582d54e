package tracking

import (
	"context"
	"sync"
	"time"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/tracking"

	"go.uber.org/zap"
)

// DefaultInterval is the refresh period of an open tracking view.
const DefaultInterval = 10 * time.Second

// Fetcher loads the live-tracking snapshot of a request.
type Fetcher interface {
	GetLiveTracking(ctx context.Context, requestID string) (*tracking.Snapshot, error)
}

// Ticker is the subset of *time.Ticker the poller uses.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Update is delivered to the caller after every accepted fetch. Initial marks
// the first fetch, the only one a loading indicator waits for. Stale is set
// when the initial fetch failed and no snapshot exists yet.
type Update struct {
	RequestID string
	Snapshot  *tracking.Snapshot
	Display   tracking.Display
	Initial   bool
	Stale     bool
	Final     bool
}

type Poller struct {
	fetcher   Fetcher
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	logger    *zap.Logger
}

func NewPoller(fetcher Fetcher, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:   fetcher,
		interval:  interval,
		newTicker: newTimeTicker,
		logger:    logger,
	}
}

// CancelHandle controls one running poll loop.
type CancelHandle struct {
	requestID string
	cancel    context.CancelFunc
	once      sync.Once
	done      chan struct{}

	deliverMu sync.Mutex
	stopped   bool

	mu       sync.RWMutex
	snapshot *tracking.Snapshot
	status   request.Status
}

// Cancel stops the loop. It is safe to call any number of times. Once it
// returns, onUpdate is not called again, so onUpdate must not call Cancel.
func (h *CancelHandle) Cancel() {
	h.once.Do(func() {
		h.deliverMu.Lock()
		h.stopped = true
		h.deliverMu.Unlock()
		h.cancel()
	})
}

// Done is closed once the loop has exited.
func (h *CancelHandle) Done() <-chan struct{} {
	return h.done
}

// Snapshot returns the latest accepted snapshot, or nil before the first.
func (h *CancelHandle) Snapshot() *tracking.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}

// Status is the last known request status.
func (h *CancelHandle) Status() request.Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// deliver hands u to onUpdate unless the loop has been cancelled.
func (h *CancelHandle) deliver(ctx context.Context, onUpdate func(Update), u Update) bool {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	if h.stopped || ctx.Err() != nil {
		return false
	}
	onUpdate(u)
	return true
}

// Start fetches the request's tracking state immediately and then every
// interval until the status is terminal or the handle is cancelled. Fetch
// failures keep the previous snapshot.
func (p *Poller) Start(ctx context.Context, requestID string, status request.Status, onUpdate func(Update)) *CancelHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &CancelHandle{
		requestID: requestID,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    status,
	}

	go func() {
		defer close(h.done)
		defer h.Cancel()

		if p.poll(ctx, h, true, onUpdate) {
			return
		}

		ticker := p.newTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if p.poll(ctx, h, false, onUpdate) {
					return
				}
			}
		}
	}()

	return h
}

// poll runs one fetch and reports whether the loop should stop.
func (p *Poller) poll(ctx context.Context, h *CancelHandle, initial bool, onUpdate func(Update)) bool {
	snap, err := p.fetcher.GetLiveTracking(ctx, h.requestID)
	if ctx.Err() != nil {
		return true
	}

	if err != nil {
		p.logger.Warn("live tracking fetch failed",
			zap.String("request_id", h.requestID),
			zap.Bool("initial", initial),
			zap.Error(err),
		)
		if initial {
			prev := h.Snapshot()
			status := h.Status()
			if !h.deliver(ctx, onUpdate, Update{
				RequestID: h.requestID,
				Snapshot:  prev,
				Display:   Project(prev, status),
				Initial:   true,
				Stale:     true,
				Final:     status.IsTerminal(),
			}) {
				return true
			}
		}
		return h.Status().IsTerminal()
	}

	h.mu.Lock()
	h.snapshot = snap
	if snap.Status != "" {
		h.status = snap.Status
	}
	status := h.status
	h.mu.Unlock()

	terminal := status.IsTerminal()
	if !h.deliver(ctx, onUpdate, Update{
		RequestID: h.requestID,
		Snapshot:  snap,
		Display:   Project(snap, status),
		Initial:   initial,
		Final:     terminal,
	}) {
		return true
	}
	if terminal {
		p.logger.Info("tracking reached terminal status",
			zap.String("request_id", h.requestID),
			zap.String("status", string(status)),
		)
	}
	return terminal
}
