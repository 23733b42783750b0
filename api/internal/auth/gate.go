// Package auth gates bot operations behind a shared password. Sessions are
// in-memory only and live for the process lifetime; a restart forgets them.
package auth

import "sync"

// Status is the per-user authorization state.
type Status int

const (
	// StatusUnset — the user has never interacted (no record yet).
	StatusUnset Status = iota
	// StatusWaiting — /start received, password prompt outstanding.
	StatusWaiting
	// StatusAuthorized — password accepted, or no password configured.
	StatusAuthorized
	// StatusDenied — wrong password; terminal until the next /start.
	StatusDenied
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusAuthorized:
		return "authorized"
	case StatusDenied:
		return "denied"
	default:
		return "unset"
	}
}

// Gate holds the configured password and the per-user session map. It is
// created once in main and injected into handlers; there is no package-level
// state. Safe for concurrent use.
type Gate struct {
	password string
	sessions sync.Map // userID -> Status
}

// NewGate builds a gate. An empty password disables the check entirely:
// every /start authorizes immediately.
func NewGate(password string) *Gate {
	return &Gate{password: password}
}

// Enabled reports whether a password is configured.
func (g *Gate) Enabled() bool { return g.password != "" }

// Status returns the user's current state without changing it.
func (g *Gate) Status(userID int64) Status {
	if v, ok := g.sessions.Load(userID); ok {
		return v.(Status)
	}
	return StatusUnset
}

// Authorized reports whether gated operations are allowed for the user.
func (g *Gate) Authorized(userID int64) bool {
	return g.Status(userID) == StatusAuthorized
}

// Start handles a /start-equivalent entry and returns the resulting state.
// With no password configured everyone goes straight to Authorized. An
// already-authorized user stays authorized (idempotent welcome). Everyone
// else — including previously denied users — re-enters the password prompt.
func (g *Gate) Start(userID int64) Status {
	if !g.Enabled() {
		g.sessions.Store(userID, StatusAuthorized)
		return StatusAuthorized
	}
	if g.Status(userID) == StatusAuthorized {
		return StatusAuthorized
	}
	g.sessions.Store(userID, StatusWaiting)
	return StatusWaiting
}

// SubmitPassword consumes a text message from a user in StatusWaiting and
// returns the resulting state. A mismatch lands the user in StatusDenied,
// where every further submission is ignored until a fresh Start. Calls in
// any other state change nothing.
func (g *Gate) SubmitPassword(userID int64, text string) Status {
	st := g.Status(userID)
	if st != StatusWaiting {
		return st
	}
	if text == g.password {
		g.sessions.Store(userID, StatusAuthorized)
		return StatusAuthorized
	}
	g.sessions.Store(userID, StatusDenied)
	return StatusDenied
}
