// Package session tracks the authentication state of the client.
//
// The manager is a three-state machine: Unknown (not yet determined),
// Authenticated (carries the user record) and Unauthenticated. Exactly one
// state holds at any instant and no completed call leaves the machine at
// Unknown. One manager is constructed per program instance and injected into
// consumers; there is no package-level state.
package session

import (
	"context"
	"sync"
	"time"

	"taskdeck/internal/service"
)

// State is the authentication status of the current client.
type State int

const (
	// StateUnknown means the status has not been determined yet.
	StateUnknown State = iota

	// StateAuthenticated means the session cookie was verified and a user
	// record is available.
	StateAuthenticated

	// StateUnauthenticated means there is no usable session.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Invalidator is the narrow capability handed to components that must force
// a logout when the remote API reports an expired session.
type Invalidator interface {
	InvalidateSession()
}

// Manager mediates all login/logout transitions. It is the single source of
// truth consulted by every protected view.
type Manager struct {
	svc    service.Service
	settle time.Duration

	// opMu serializes session checks so two overlapping checks cannot
	// interleave their transitions; the latest check wins.
	opMu sync.Mutex

	mu    sync.RWMutex
	state State
	user  *service.User
	subs  []func()
}

// NewManager creates a manager in the Unknown state.
// settle is the post-login wait before re-verifying the session cookie; pass
// zero to use the default.
func NewManager(svc service.Service, settle time.Duration) *Manager {
	if settle <= 0 {
		settle = 150 * time.Millisecond
	}
	return &Manager{svc: svc, settle: settle, state: StateUnknown}
}

// State returns the current authentication state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the authenticated user, or nil outside StateAuthenticated.
func (m *Manager) User() *service.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// OnInvalidate registers a callback fired whenever the session becomes
// invalid (explicit logout or a reported expiry). Callbacks run on the
// goroutine that triggered the transition.
func (m *Manager) OnInvalidate(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// CheckStatus queries the session-verification endpoint and resolves the
// state. A transport failure is conservatively treated as Unauthenticated:
// a possible false logout is preferred over a view stuck unable to decide.
func (m *Manager) CheckStatus(ctx context.Context) State {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.check(ctx)
}

func (m *Manager) check(ctx context.Context) State {
	m.setState(StateUnknown, nil)

	user, err := m.svc.CurrentUser(ctx)
	if err != nil || user == nil {
		m.setState(StateUnauthenticated, nil)
		return StateUnauthenticated
	}
	m.setState(StateAuthenticated, user)
	return StateAuthenticated
}

// ConfirmLogin verifies the session after a login request was accepted.
// The cookie set by the login response is not synchronously visible to the
// next request, so the manager waits a short settling interval before
// re-querying. If verification still fails it falls back to the CheckStatus
// policy.
func (m *Manager) ConfirmLogin(ctx context.Context) State {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	select {
	case <-time.After(m.settle):
	case <-ctx.Done():
	}

	user, err := m.svc.CurrentUser(ctx)
	if err == nil && user != nil {
		m.setState(StateAuthenticated, user)
		return StateAuthenticated
	}
	return m.check(ctx)
}

// Logout invokes the remote logout endpoint and unconditionally transitions
// to Unauthenticated. A network failure is swallowed: local state must be
// cleared regardless. Calling Logout repeatedly is safe.
func (m *Manager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	// Best-effort; the server-side session may already be gone.
	_ = m.svc.Logout(ctx)

	m.invalidate()
}

// InvalidateSession implements Invalidator. It transitions to
// Unauthenticated without calling the remote logout endpoint; it is invoked
// when the API has already reported the session expired.
func (m *Manager) InvalidateSession() {
	m.invalidate()
}

func (m *Manager) invalidate() {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.user = nil
	subs := make([]func(), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (m *Manager) setState(s State, user *service.User) {
	m.mu.Lock()
	m.state = s
	m.user = user
	m.mu.Unlock()
}
