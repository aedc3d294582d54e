package tracking

import (
	"context"
	"sync"

	"assistance-gateway/internal/domain/request"
)

// Registry keeps at most one running poller per tracking view.
type Registry struct {
	poller *Poller

	mu    sync.Mutex
	views map[string]*CancelHandle
}

func NewRegistry(poller *Poller) *Registry {
	return &Registry{
		poller: poller,
		views:  make(map[string]*CancelHandle),
	}
}

// Open cancels the view's current poller, if any, and starts a new one.
func (r *Registry) Open(ctx context.Context, viewID, requestID string, status request.Status, onUpdate func(Update)) *CancelHandle {
	r.mu.Lock()
	if prev, ok := r.views[viewID]; ok {
		prev.Cancel()
	}
	h := r.poller.Start(ctx, requestID, status, onUpdate)
	r.views[viewID] = h
	r.mu.Unlock()

	go func() {
		<-h.Done()
		r.mu.Lock()
		if r.views[viewID] == h {
			delete(r.views, viewID)
		}
		r.mu.Unlock()
	}()
	return h
}

// Close cancels the view's poller. It reports whether one was running.
func (r *Registry) Close(viewID string) bool {
	r.mu.Lock()
	h, ok := r.views[viewID]
	delete(r.views, viewID)
	r.mu.Unlock()
	if ok {
		h.Cancel()
	}
	return ok
}

// Get returns the view's running poller.
func (r *Registry) Get(viewID string) (*CancelHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.views[viewID]
	return h, ok
}

// CloseAll cancels every poller.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*CancelHandle)
	r.mu.Unlock()
	for _, h := range views {
		h.Cancel()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
