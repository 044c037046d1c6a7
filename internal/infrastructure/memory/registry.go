package memory

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-scan-login/internal/domain"
	"github.com/go-scan-login/internal/pkg/id"
)

// Registry is the process-wide correlation store for login attempts. Attempts
// are indexed by scene id and by ticket behind a single lock, so a resolve can
// never be observed half-applied by a concurrent poll.
//
// With a zero TTL attempts live for the process lifetime. With a positive TTL
// a background sweep evicts attempts older than the TTL.
type Registry struct {
	mu       sync.RWMutex
	byScene  map[string]*domain.LoginAttempt
	byTicket map[string]*domain.LoginAttempt
	expiry   expiryHeap

	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
	swept chan struct{} // closed when the sweep goroutine exits
}

// Options configures eviction. The zero value disables it.
type Options struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// NewRegistry builds a registry and, when opts.TTL > 0, starts its sweep loop.
// Call Close to stop the loop.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		byScene:  make(map[string]*domain.LoginAttempt),
		byTicket: make(map[string]*domain.LoginAttempt),
		ttl:      opts.TTL,
		now:      time.Now,
		stop:     make(chan struct{}),
		swept:    make(chan struct{}),
	}
	if r.ttl > 0 {
		interval := opts.SweepInterval
		if interval <= 0 {
			interval = time.Minute
		}
		go r.sweepLoop(interval)
	} else {
		close(r.swept)
	}
	return r
}

func sceneKey(sceneID int32) string {
	return strconv.FormatInt(int64(sceneID), 10)
}

// Begin registers a pending attempt linking sceneID and ticket.
// It fails with domain.ErrConflict when the ticket is already registered or
// the scene is still linked to a different live ticket.
func (r *Registry) Begin(_ context.Context, sceneID int32, ticket string) (*domain.LoginAttempt, error) {
	if sceneID <= 0 {
		return nil, fmt.Errorf("scene id must be positive: %w", domain.ErrBadRequest)
	}
	if ticket == "" {
		return nil, fmt.Errorf("ticket is required: %w", domain.ErrBadRequest)
	}
	key := sceneKey(sceneID)
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byTicket[ticket]; exists {
		return nil, fmt.Errorf("duplicate ticket: %w", domain.ErrConflict)
	}
	if _, exists := r.byScene[key]; exists {
		return nil, fmt.Errorf("scene %d already in use: %w", sceneID, domain.ErrConflict)
	}
	a := &domain.LoginAttempt{
		ID:        id.New(),
		SceneID:   sceneID,
		Ticket:    ticket,
		Status:    domain.LoginStatusPending,
		CreatedAt: now,
	}
	r.byScene[key] = a
	r.byTicket[ticket] = a
	if r.ttl > 0 {
		heap.Push(&r.expiry, expiryItem{ticket: ticket, deadline: now.Add(r.ttl)})
	}
	out := *a
	return &out, nil
}

// Poll returns a copy of the state for ticket. Unregistered tickets report
// domain.LoginStatusUnknown rather than an error.
func (r *Registry) Poll(_ context.Context, ticket string) domain.LoginState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byTicket[ticket]
	if !ok {
		return domain.LoginState{Status: domain.LoginStatusUnknown}
	}
	return domain.LoginState{
		AttemptID: a.ID,
		Status:    a.Status,
		OpenID:    a.OpenID,
		CreatedAt: a.CreatedAt,
	}
}

// ResolveByScene attaches openID to the attempt linked to sceneValue.
// The first resolve wins: resolving an already resolved attempt succeeds
// without changing it and reports AlreadyResolved.
// An unknown scene value yields domain.ErrNotFound and creates nothing,
// whatever the sender; an empty openID on a known scene is domain.ErrBadRequest.
func (r *Registry) ResolveByScene(_ context.Context, sceneValue, openID string) (domain.ResolveOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byScene[sceneValue]
	if !ok {
		return domain.ResolveOutcome{}, fmt.Errorf("scene %q: %w", sceneValue, domain.ErrNotFound)
	}
	if openID == "" {
		return domain.ResolveOutcome{}, fmt.Errorf("open id is required: %w", domain.ErrBadRequest)
	}
	out := domain.ResolveOutcome{AttemptID: a.ID, Ticket: a.Ticket}
	if a.Status == domain.LoginStatusResolved {
		out.OpenID = a.OpenID
		out.AlreadyResolved = true
		return out, nil
	}
	now := r.now().UTC()
	a.Status = domain.LoginStatusResolved
	a.OpenID = openID
	a.ResolvedAt = &now
	out.OpenID = openID
	return out, nil
}

// SceneInUse reports whether sceneID is linked to a live attempt.
func (r *Registry) SceneInUse(sceneID int32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byScene[sceneKey(sceneID)]
	return ok
}

// Len returns the number of live attempts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTicket)
}

// Sweep evicts every attempt whose deadline is not after now and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for r.expiry.Len() > 0 && !r.expiry[0].deadline.After(now) {
		item := heap.Pop(&r.expiry).(expiryItem)
		a, ok := r.byTicket[item.ticket]
		if !ok {
			continue
		}
		delete(r.byTicket, item.ticket)
		delete(r.byScene, sceneKey(a.SceneID))
		removed++
	}
	return removed
}

func (r *Registry) sweepLoop(interval time.Duration) {
	defer close(r.swept)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				slog.Info("evicted expired login attempts", "count", n, "remaining", r.Len())
			}
		case <-r.stop:
			return
		}
	}
}

// Close stops the sweep loop. It is safe to call more than once.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.stop) })
	<-r.swept
}

type expiryItem struct {
	ticket   string
	deadline time.Time
}

// expiryHeap is a min-heap of attempts ordered by eviction deadline.
type expiryHeap []expiryItem

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)        { *h = append(*h, x.(expiryItem)) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
