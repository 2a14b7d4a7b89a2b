// Package session decides whether a protected view may render. A Signal holds
// the current authentication state, and a Gate turns that state into a
// render decision.
package session

import (
	"context"
	"sync"
)

// State of a session signal.
type State int

const (
	Unresolved State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

// Identity is the authenticated principal behind a session.
type Identity struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
}

// Signal starts unresolved and is resolved exactly once to authenticated or
// anonymous. Later session changes may re-resolve it, but it never returns to
// unresolved.
type Signal struct {
	mu       sync.RWMutex
	state    State
	identity *Identity
	resolved chan struct{}
	once     sync.Once
}

func NewSignal() *Signal {
	return &Signal{resolved: make(chan struct{})}
}

// Resolve sets the signal to authenticated for a non-nil id, anonymous
// otherwise.
func (s *Signal) Resolve(id *Identity) {
	s.mu.Lock()
	if id != nil {
		s.state = Authenticated
		cp := *id
		s.identity = &cp
	} else {
		s.state = Anonymous
		s.identity = nil
	}
	s.mu.Unlock()
	s.once.Do(func() { close(s.resolved) })
}

func (s *Signal) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the resolved identity, or nil when not authenticated.
func (s *Signal) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// Wait blocks until the signal is first resolved or ctx is done.
func (s *Signal) Wait(ctx context.Context) (State, error) {
	select {
	case <-s.resolved:
		return s.State(), nil
	case <-ctx.Done():
		return Unresolved, ctx.Err()
	}
}

// Decision is what a protected view should do for the current state.
type Decision int

const (
	ShowLoading Decision = iota
	Render
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "loading"
	}
}

// DefaultLoginPath is where anonymous visitors of protected views are sent.
const DefaultLoginPath = "/auth"

// Gate guards protected views.
type Gate struct {
	LoginPath string
}

func NewGate() Gate {
	return Gate{LoginPath: DefaultLoginPath}
}

// Evaluate never renders while the signal is unresolved, so protected content
// is not shown before an authenticated state is known.
func (g Gate) Evaluate(sig *Signal) Decision {
	switch sig.State() {
	case Authenticated:
		return Render
	case Anonymous:
		return Redirect
	default:
		return ShowLoading
	}
}

// Target returns the redirect destination.
func (g Gate) Target() string {
	if g.LoginPath == "" {
		return DefaultLoginPath
	}
	return g.LoginPath
}
