package combat

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store persists combat sessions. Commit is the single mutation path: it must
// apply mutate to the current state and persist the result all-or-nothing,
// serialised against other commits to the same session.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	// Commit runs mutate on a private copy and stores it only if mutate
	// returns nil. The committed state is returned.
	Commit(ctx context.Context, id string, mutate func(*Session) error) (*Session, error)
}

// Engine is the in-memory Store, keyed by session ID.
// All methods are safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewEngine creates an empty combat Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine() *Engine {
	return &Engine{sessions: make(map[string]*Session)}
}

// Create stores a copy of s.
//
// Precondition: s.ID must be non-empty.
// Postcondition: Returns ErrCombatExists if the ID is taken.
func (e *Engine) Create(_ context.Context, s *Session) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.sessions[s.ID]; exists {
		return fmt.Errorf("%w: %q", ErrCombatExists, s.ID)
	}
	e.sessions[s.ID] = s.Clone()
	return nil
}

// Load returns a copy of the session.
//
// Postcondition: Returns the session or ErrCombatNotFound.
func (e *Engine) Load(_ context.Context, id string) (*Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCombatNotFound, id)
	}
	return s.Clone(), nil
}

// Commit applies mutate copy-on-write under the engine lock.
//
// Postcondition: On mutate error the stored session is untouched.
func (e *Engine) Commit(_ context.Context, id string, mutate func(*Session) error) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCombatNotFound, id)
	}
	next := cur.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	e.sessions[id] = next
	return next.Clone(), nil
}

// End removes the session record for id.
func (e *Engine) End(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, id)
}

// IDs returns all session IDs in sorted order.
func (e *Engine) IDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
