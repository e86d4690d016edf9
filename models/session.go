package models

import "sync"

// Role is the access level attached to a resolved session.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ProviderIdentity is the nullable identity reported by the identity provider.
type ProviderIdentity struct {
	Email       string
	DisplayName string
}

// Session is the caller identity derived from the two credential sources:
// the durable manual admin flag and the identity-provider session. It is
// computed, never persisted.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Role          Role   `json:"role,omitempty"`
}

// ResolveSession merges the durable manual flag and the identity-provider
// state into a session. The rules, in order:
//
//   - provider identity present: authenticated; admin when its email matches
//     the configured admin address or the manual flag is set, user otherwise.
//     Username falls back DisplayName -> Email -> "User".
//   - no provider identity but manual flag set: authenticated as the fixed
//     admin handle. The manual flag overrides a null provider state but never
//     downgrades a non-null one.
//   - neither: unauthenticated.
//
// The function is pure and idempotent; identical inputs yield identical sessions.
func ResolveSession(manual bool, id *ProviderIdentity, adminEmail, adminHandle string) Session {
	if id != nil {
		role := RoleUser
		if id.Email == adminEmail || manual {
			role = RoleAdmin
		}
		username := id.DisplayName
		if username == "" {
			username = id.Email
		}
		if username == "" {
			username = "User"
		}
		return Session{Authenticated: true, Username: username, Role: role}
	}
	if manual {
		return Session{Authenticated: true, Username: adminHandle, Role: RoleAdmin}
	}
	return Session{}
}

// SessionTracker is the stateful form of ResolveSession: it carries the most
// recently observed combination of the two inputs and notifies subscribers on
// every change. Input updates are last-writer-wins per stream, so provider
// callbacks and manual logins may interleave in any order. Loading stays true
// until the provider has reported at least once, which lets consumers avoid a
// flash of logged-out state during startup.
type SessionTracker struct {
	mu          sync.Mutex
	adminEmail  string
	adminHandle string
	manual      bool
	provider    *ProviderIdentity
	loading     bool
	current     Session
	nextSubID   int
	subs        map[int]func(Session)
}

// NewSessionTracker creates a tracker in the loading, unauthenticated state.
func NewSessionTracker(adminEmail, adminHandle string) *SessionTracker {
	return &SessionTracker{
		adminEmail:  adminEmail,
		adminHandle: adminHandle,
		loading:     true,
		subs:        map[int]func(Session){},
	}
}

// Current returns the most recently resolved session.
func (t *SessionTracker) Current() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Loading reports whether the provider has yet to deliver its first state callback.
func (t *SessionTracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// SetManual updates the durable manual admin flag.
func (t *SessionTracker) SetManual(active bool) {
	t.mu.Lock()
	t.manual = active
	t.resolveLocked()
	t.mu.Unlock()
}

// ObserveProvider records the latest identity-provider callback. A nil
// identity means the provider reports no session; the manual flag, when set,
// still keeps the admin session alive in that case.
func (t *SessionTracker) ObserveProvider(id *ProviderIdentity) {
	t.mu.Lock()
	t.provider = id
	t.loading = false
	t.resolveLocked()
	t.mu.Unlock()
}

// Logout clears both credential sources unconditionally. The resulting state
// is always unauthenticated, regardless of any in-flight provider call.
func (t *SessionTracker) Logout() {
	t.mu.Lock()
	t.manual = false
	t.provider = nil
	t.resolveLocked()
	t.mu.Unlock()
}

// Subscribe registers fn to run on every session change and returns a cancel
// function. Identical resolved states are not re-delivered.
func (t *SessionTracker) Subscribe(fn func(Session)) func() {
	t.mu.Lock()
	id := t.nextSubID
	t.nextSubID++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// resolveLocked recomputes the session and fans out only on change.
func (t *SessionTracker) resolveLocked() {
	next := ResolveSession(t.manual, t.provider, t.adminEmail, t.adminHandle)
	if next == t.current {
		return
	}
	t.current = next
	for _, fn := range t.subs {
		fn(next)
	}
}
