package domain

import "time"

// LoginStatus is the observable state of a login attempt.
type LoginStatus int

const (
	// LoginStatusUnknown is reported for tickets the registry has never seen
	// (or has evicted). The HTTP surface reports it as "waiting".
	LoginStatusUnknown LoginStatus = iota
	LoginStatusPending
	LoginStatusResolved
)

func (s LoginStatus) String() string {
	switch s {
	case LoginStatusPending:
		return "pending"
	case LoginStatusResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// LoginAttempt is one scan-to-login correlation: scene id <-> ticket <-> state.
type LoginAttempt struct {
	ID         string
	SceneID    int32
	Ticket     string
	Status     LoginStatus
	OpenID     string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// LoginState is a point-in-time copy of an attempt's state, safe to read without locks.
type LoginState struct {
	AttemptID string
	Status    LoginStatus
	OpenID    string
	CreatedAt time.Time
}

// Resolved reports whether the attempt carries a confirmed user identity.
func (s LoginState) Resolved() bool {
	return s.Status == LoginStatusResolved && s.OpenID != ""
}

// ResolveOutcome describes what a resolve call did to the matching attempt.
type ResolveOutcome struct {
	AttemptID string
	Ticket    string
	OpenID    string
	// AlreadyResolved is true when the attempt had been resolved before; the
	// first confirming user is kept.
	AlreadyResolved bool
}

// LoginTicket is what a started login hands back to the web client.
type LoginTicket struct {
	AttemptID string
	SceneID   int32
	Ticket    string
	ImageURL  string
}
