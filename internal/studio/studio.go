package studio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"streamoverlay/internal/auth"
	"streamoverlay/internal/compositor"
	"streamoverlay/internal/overlay"
	"streamoverlay/internal/playback"
)

// ErrBlankStreamURL is returned when activating an empty stream address.
// Non-blank is the only validation applied.
var ErrBlankStreamURL = errors.New("stream URL must not be blank")

// Studio is the session-gated orchestration layer: it holds the current
// overlay view and the active stream address, wires gesture-driven geometry
// edits to the store, and re-fetches the overlay list after every mutation.
// The view is never mutated optimistically.
type Studio struct {
	overlays *overlay.Service
	surface  *compositor.Surface
	player   *playback.Player
	log      *slog.Logger
	feed     *Feed

	mu        sync.RWMutex
	userID    string
	view      []overlay.Overlay
	streamURL string

	cancelEvents func()
	done         chan struct{}
}

// New wires a Studio: the surface's gesture updates flow into the overlay
// store, and the session hub's signed-out notifications drop the view.
func New(svc *overlay.Service, surface *compositor.Surface, player *playback.Player, hub *auth.Hub, feed *Feed, log *slog.Logger) *Studio {
	st := &Studio{
		overlays: svc,
		surface:  surface,
		player:   player,
		log:      log,
		feed:     feed,
		done:     make(chan struct{}),
	}

	surface.OnUpdate(st.handleOverlayUpdate)

	events, cancel := hub.Subscribe()
	st.cancelEvents = cancel
	go st.watchSessions(events)

	return st
}

// watchSessions reacts to session state changes: a signed-out notification
// for the active user clears the view and the rendered scene.
func (st *Studio) watchSessions(events <-chan auth.Event) {
	defer close(st.done)
	for ev := range events {
		if ev.Type != auth.EventSignedOut {
			continue
		}
		st.mu.Lock()
		if st.userID != ev.UserID {
			st.mu.Unlock()
			continue
		}
		st.userID = ""
		st.view = nil
		st.mu.Unlock()

		st.surface.SetOverlays(nil)
		st.log.Info("session ended, view cleared", slog.String("user_id", ev.UserID))
	}
}

// Refresh re-fetches the overlay list for the given user, rebuilds the
// rendered scene from it, and broadcasts the change.
func (st *Studio) Refresh(userID string) {
	view := st.overlays.List(userID)

	st.mu.Lock()
	st.userID = userID
	st.view = view
	st.mu.Unlock()

	st.surface.SetOverlays(view)
	if st.feed != nil {
		st.feed.Broadcast(ChangeEvent{Type: "overlays", UserID: userID, Overlays: len(view)})
	}
}

// OverlaysChanged implements overlay.ChangeListener: every completed create
// or delete triggers a re-fetch.
func (st *Studio) OverlaysChanged(userID string) {
	st.Refresh(userID)
}

// View returns the current in-memory overlay view.
func (st *Studio) View() []overlay.Overlay {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]overlay.Overlay, len(st.view))
	copy(out, st.view)
	return out
}

// handleOverlayUpdate persists the geometry reported by a completed gesture
// as a partial update keyed by id, then refreshes the view so the next
// rebuild reflects stored state. Failures are surfaced in the log and not
// retried; the rendered object is not rolled back.
func (st *Studio) handleOverlayUpdate(id string, upd overlay.Update) {
	if _, err := st.overlays.Update(id, upd); err != nil {
		st.log.Warn("overlay geometry update failed",
			slog.String("overlay_id", id),
			slog.String("error", err.Error()))
		return
	}

	st.mu.RLock()
	userID := st.userID
	st.mu.RUnlock()
	if userID != "" {
		st.Refresh(userID)
	}
}

// ActivateStream validates the address (non-blank only), records it as the
// active stream, and loads the player. The address stays active even when
// loading fails; the failure is reported to the caller.
func (st *Studio) ActivateStream(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return ErrBlankStreamURL
	}

	st.mu.Lock()
	st.streamURL = url
	st.mu.Unlock()

	return st.player.Load(ctx, url)
}

// StreamURL returns the active stream address, or "" when none is set.
func (st *Studio) StreamURL() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.streamURL
}

// CompleteGesture forwards a finished move/resize interaction to the surface.
// It reports whether the gesture resolved to a rendered object.
func (st *Studio) CompleteGesture(id string, g compositor.Gesture) bool {
	return st.surface.CompleteGesture(id, g)
}

// Player returns the playback transport.
func (st *Studio) Player() *playback.Player {
	return st.player
}

// Surface returns the render surface.
func (st *Studio) Surface() *compositor.Surface {
	return st.surface
}

// Close tears the studio down: the session subscription is cancelled and the
// player and surface release their resources.
func (st *Studio) Close() error {
	st.cancelEvents()
	<-st.done
	if st.feed != nil {
		st.feed.Close()
	}
	st.player.Close()
	return st.surface.Close()
}
