package studio

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"streamoverlay/internal/auth"
	"streamoverlay/internal/compositor"
	"streamoverlay/internal/overlay"
	"streamoverlay/internal/playback"
	"streamoverlay/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the studio endpoints using go-chi.
type Handler struct {
	studio  *Studio
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler for the given Studio. Metrics may be nil.
func NewHandler(st *Studio, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{studio: st, log: log, metrics: m}
}

// Routes mounts the studio endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/studio", h.State)
	r.Post("/studio/stream", h.ActivateStream)
	r.Post("/studio/gestures/{overlay_id}", h.CompleteGesture)
	r.Get("/studio/frame.png", h.Frame)
	r.Get("/studio/events", h.Events)
	r.Post("/studio/player/playpause", h.TogglePlay)
	r.Post("/studio/player/volume", h.SetVolume)
	r.Post("/studio/player/mute", h.ToggleMute)
}

type stateResponse struct {
	StreamURL string            `json:"stream_url"`
	Overlays  []overlay.Overlay `json:"overlays"`
	Player    playback.State    `json:"player"`
}

// State handles GET /studio.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	h.studio.Refresh(identity.ID)

	writeJSON(w, http.StatusOK, stateResponse{
		StreamURL: h.studio.StreamURL(),
		Overlays:  h.studio.View(),
		Player:    h.studio.Player().State(),
	})
}

type activateStreamRequest struct {
	URL string `json:"url"`
}

// ActivateStream handles POST /studio/stream. Body: {"url": ...}.
func (h *Handler) ActivateStream(w http.ResponseWriter, r *http.Request) {
	var req activateStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err := h.studio.ActivateStream(r.Context(), req.URL)
	switch {
	case err == nil:
		if h.metrics != nil {
			h.metrics.IncStreamsActivated()
		}
		writeJSON(w, http.StatusOK, map[string]string{"stream_url": h.studio.StreamURL()})
	case errors.Is(err, ErrBlankStreamURL):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, playback.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, err)
	default:
		// The address stays active; the load failure is the notice.
		h.log.Info("stream load failed",
			slog.String("url", req.URL),
			slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, err)
	}
}

type gestureRequest struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	ScaleX float64 `json:"scale_x"`
	ScaleY float64 `json:"scale_y"`
}

// CompleteGesture handles POST /studio/gestures/{overlay_id}: the end of a
// move/resize interaction on a rendered object.
func (h *Handler) CompleteGesture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "overlay_id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ok := h.studio.CompleteGesture(id, compositor.Gesture{
		Left:   req.Left,
		Top:    req.Top,
		ScaleX: req.ScaleX,
		ScaleY: req.ScaleY,
	})
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if h.metrics != nil {
		h.metrics.IncGesturesCompleted()
	}
	w.WriteHeader(http.StatusOK)
}

// Frame handles GET /studio/frame.png: the composited overlay scene.
func (h *Handler) Frame(w http.ResponseWriter, r *http.Request) {
	data, err := h.studio.Surface().FramePNG()
	if err != nil {
		h.log.Error("frame render failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Events handles GET /studio/events: a websocket stream of overlay-list
// change notifications.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.studio.feed.Handle(w, r)
}

// TogglePlay handles POST /studio/player/playpause.
func (h *Handler) TogglePlay(w http.ResponseWriter, r *http.Request) {
	playing := h.studio.Player().TogglePlay()
	writeJSON(w, http.StatusOK, map[string]bool{"playing": playing})
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

// SetVolume handles POST /studio/player/volume. Body: {"volume": 0..1}.
func (h *Handler) SetVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.studio.Player().SetVolume(req.Volume)
	writeJSON(w, http.StatusOK, h.studio.Player().State())
}

// ToggleMute handles POST /studio/player/mute.
func (h *Handler) ToggleMute(w http.ResponseWriter, r *http.Request) {
	muted := h.studio.Player().ToggleMute()
	writeJSON(w, http.StatusOK, map[string]bool{"muted": muted})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
