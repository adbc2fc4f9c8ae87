package studio

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ChangeEvent is one overlay-list change notification on the feed.
type ChangeEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Overlays int    `json:"overlays"`
}

// Feed streams overlay-list change notifications to websocket subscribers,
// one JSON event per mutation. Subscribers that fall off (write error) are
// dropped; there is no replay.
type Feed struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewFeed returns an empty Feed.
func NewFeed(log *slog.Logger) *Feed {
	return &Feed{
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handle upgrades the request to a websocket and keeps the connection
// subscribed until the peer goes away.
func (f *Feed) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	f.mu.Lock()
	f.conns[conn] = struct{}{}
	f.mu.Unlock()

	// Drain control/incoming frames; the read loop ends when the peer closes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	f.mu.Lock()
	delete(f.conns, conn)
	f.mu.Unlock()
	conn.Close()
}

// Broadcast delivers ev to every subscriber.
func (f *Feed) Broadcast(ev ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for conn := range f.conns {
		if err := conn.WriteJSON(ev); err != nil {
			delete(f.conns, conn)
			conn.Close()
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// Close drops every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		conn.Close()
		delete(f.conns, conn)
	}
}
