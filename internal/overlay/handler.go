package overlay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"streamoverlay/internal/auth"
	"streamoverlay/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// ChangeListener is notified after every successful create or delete so the
// owning view can re-fetch its overlay list. Notification happens after the
// store write completed; the list is never mutated optimistically.
type ChangeListener interface {
	OverlaysChanged(userID string)
}

// Handler exposes overlay CRUD endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
	changes ChangeListener
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional
// Metrics and ChangeListener. Metrics and changes may be nil (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics, changes ChangeListener) *Handler {
	return &Handler{svc: svc, log: log, metrics: m, changes: changes}
}

// Routes mounts the overlay endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/overlays", h.List)
	r.Post("/overlays", h.Create)
	r.Patch("/overlays/{overlay_id}", h.Update)
	r.Delete("/overlays/{overlay_id}", h.Delete)
}

// List handles GET /overlays. Records are returned newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, h.svc.List(identity.ID))
}

// Create handles POST /overlays. Body: a Draft.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var d Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		h.log.Debug("invalid overlay draft", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	o, err := h.svc.Create(identity.ID, d)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthenticated):
			w.WriteHeader(http.StatusUnauthorized)
		case errors.Is(err, ErrInvalidKind):
			w.WriteHeader(http.StatusBadRequest)
		default:
			h.log.Error("create overlay failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	h.log.Info("overlay created",
		slog.String("overlay_id", o.ID),
		slog.String("user_id", o.UserID),
		slog.String("kind", string(o.Kind)))
	if h.metrics != nil {
		h.metrics.IncOverlaysCreated()
	}
	if h.changes != nil {
		h.changes.OverlaysChanged(o.UserID)
	}
	writeJSON(w, http.StatusCreated, o)
}

// Update handles PATCH /overlays/{overlay_id}. Body: partial fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "overlay_id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.log.Debug("invalid overlay update", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	o, err := h.svc.Update(id, upd)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.log.Error("update overlay failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.IncOverlayUpdates()
	}
	if h.changes != nil {
		h.changes.OverlaysChanged(identity.ID)
	}
	writeJSON(w, http.StatusOK, o)
}

// Delete handles DELETE /overlays/{overlay_id}. Deleting an id that does not
// resolve to a record (e.g. already removed) is a 404; the caller's list is
// left as-is.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "overlay_id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.log.Error("delete overlay failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.log.Info("overlay deleted", slog.String("overlay_id", id))
	if h.metrics != nil {
		h.metrics.IncOverlaysDeleted()
	}
	if h.changes != nil {
		h.changes.OverlaysChanged(identity.ID)
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
