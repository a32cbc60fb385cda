package kpi

import (
	"context"
	"sync"

	"github.com/sentitrack/sentitrack/internal/models"
)

// Tracker keeps one in-flight computation per view key. Starting a new one
// cancels the previous computation for the same key, so a late response can
// never overwrite a newer selection.
type Tracker struct {
	mu       sync.Mutex
	inflight map[string]*Ticket
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{inflight: make(map[string]*Ticket)}
}

// Ticket identifies one computation started by Begin.
type Ticket struct {
	tracker    *Tracker
	key        string
	cancel     context.CancelFunc
	superseded bool // guarded by tracker.mu
}

// Begin registers a computation for key and returns its context and ticket.
// Any earlier computation for key is cancelled.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.inflight[key]; ok {
		prev.superseded = true
		prev.cancel()
	}
	ticket := &Ticket{tracker: t, key: key, cancel: cancel}
	t.inflight[key] = ticket
	return ctx, ticket
}

// Current reports whether no newer computation has started for the key.
func (tk *Ticket) Current() bool {
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()

	return !tk.superseded
}

// Done releases the ticket's context and forgets it if still current.
func (tk *Ticket) Done() {
	tk.cancel()

	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()

	if tk.tracker.inflight[tk.key] == tk {
		delete(tk.tracker.inflight, tk.key)
	}
}

// Latest runs fn under a fresh ticket for key and returns ErrSuperseded when a
// newer computation for the same key began before fn finished.
func Latest[T any](ctx context.Context, t *Tracker, key string, fn func(context.Context) (T, error)) (T, error) {
	runCtx, ticket := t.Begin(ctx, key)
	defer ticket.Done()

	result, err := fn(runCtx)
	if !ticket.Current() {
		var zero T
		return zero, models.ErrSuperseded
	}
	return result, err
}
