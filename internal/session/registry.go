// Package session provides the in-memory registry of splitting sessions.
//
// Each browser session owns one BillState. The registry is the only place
// holding mutable references: transitions run under the lock via Swap, which
// stores the snapshot the transition returns. The state values themselves
// are never mutated, so readers holding an old snapshot are unaffected by
// later writes.
//
// Everything here is volatile. A process restart loses all sessions.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amit429/billbreak/internal/models"
)

// ErrNotFound is returned when a session id is unknown or already expired.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an idle session survives before the janitor evicts
// it.
const DefaultTTL = 2 * time.Hour

type entry struct {
	state    models.BillState
	lastSeen time.Time
}

// Registry holds the live sessions. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*entry
	ttl       time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry creates a registry whose idle sessions expire after ttl.
// A ttl <= 0 falls back to DefaultTTL. The returned registry runs a janitor
// goroutine until Close is called.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Close stops the janitor. Sessions are dropped with the process.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Create registers a fresh session with an empty bill and returns its id.
func (r *Registry) Create() string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{lastSeen: time.Now()}
	r.mu.Unlock()
	return id
}

// Get returns the session's current snapshot and refreshes its idle timer.
// The state is read inside the critical section so a concurrent Swap can
// never surface a half-written snapshot.
func (r *Registry) Get(id string) (models.BillState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return models.BillState{}, ErrNotFound
	}
	e.lastSeen = time.Now()
	return e.state, nil
}

// Swap applies fn to the session's current snapshot under the lock and
// stores the snapshot fn returns. fn must be pure over its input; it is the
// bridge between the HTTP layer and bill.Apply.
func (r *Registry) Swap(id string, fn func(models.BillState) models.BillState) (models.BillState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return models.BillState{}, ErrNotFound
	}
	e.state = fn(e.state)
	e.lastSeen = time.Now()
	return e.state, nil
}

// Delete drops the session. Idempotent.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(r.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			r.sweep(now)
		}
	}
}

func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.sessions, id)
		}
	}
}
