package auth

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned by SignIn when the username or
	// secret does not match a provisioned user.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a provisioned account. This system only reacts to session state and
// never manages credentials, so the user table is fixed at construction.
type User struct {
	ID          string
	Username    string
	Secret      string
	DisplayName string
}

// EventType classifies session state changes.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is delivered to subscribers whenever session state changes.
type Event struct {
	Type   EventType
	UserID string
}

// Hub issues and resolves session tokens and publishes session state changes
// to subscribers. The subscription has an explicit lifecycle: Subscribe
// returns a cancel func that must be called when the subscriber goes away.
type Hub struct {
	mu       sync.RWMutex
	users    map[string]User     // by username
	sessions map[string]Identity // token -> identity
	subs     map[uint64]chan Event
	nextSub  uint64
	closed   bool
}

// NewHub returns a Hub with the given provisioned users.
func NewHub(users ...User) *Hub {
	byName := make(map[string]User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &Hub{
		users:    byName,
		sessions: make(map[string]Identity),
		subs:     make(map[uint64]chan Event),
	}
}

// SignIn validates the credentials and issues an opaque session token.
// The secret comparison is constant-time.
func (h *Hub) SignIn(username, secret string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	u, ok := h.users[username]
	if !ok {
		// Compare against an empty secret anyway so lookup failures are not
		// distinguishable by timing.
		subtle.ConstantTimeCompare([]byte(secret), []byte{})
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(u.Secret)) != 1 {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	h.sessions[token] = Identity{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
	h.notifyLocked(Event{Type: EventSignedIn, UserID: u.ID})
	return token, nil
}

// Resolve maps a session token to its identity.
func (h *Hub) Resolve(token string) (Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.sessions[token]
	return id, ok
}

// SignOut revokes the session for the given token and notifies subscribers.
// Revoking an unknown token is a no-op.
func (h *Hub) SignOut(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.sessions[token]
	if !ok {
		return
	}
	delete(h.sessions, token)
	h.notifyLocked(Event{Type: EventSignedOut, UserID: id.ID})
}

// Subscribe registers for session state change events. The returned cancel
// func unsubscribes and closes the channel; it must be called on teardown.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSub++
	key := h.nextSub
	ch := make(chan Event, 8)
	h.subs[key] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[key]; ok {
			delete(h.subs, key)
			close(c)
		}
	}
	return ch, cancel
}

// ActiveSessionCount returns the number of live sessions. Used for metrics.
func (h *Hub) ActiveSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// notifyLocked delivers ev to all subscribers. Slow subscribers whose buffer
// is full miss the event rather than blocking sign-in/out.
func (h *Hub) notifyLocked(ev Event) {
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
