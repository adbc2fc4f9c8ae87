package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the session endpoints using go-chi.
type Handler struct {
	hub *Hub
	log *slog.Logger
}

// NewHandler returns a Handler backed by hub.
func NewHandler(hub *Hub, log *slog.Logger) *Handler {
	return &Handler{hub: hub, log: log}
}

// Routes mounts the session endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/signin", h.SignIn)
	r.Post("/auth/signout", h.SignOut)
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}

// SignIn handles POST /auth/signin. Body: {"username": ..., "password": ...}.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	token, err := h.hub.SignIn(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h.log.Error("sign in failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	id, _ := h.hub.Resolve(token)
	h.log.Info("signed in", slog.String("user_id", id.ID))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(signInResponse{Token: token, Identity: id})
}

// SignOut handles POST /auth/signout. The session to revoke is the bearer
// token on the request; revoking an already-revoked token is a no-op.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.hub.SignOut(token)
	w.WriteHeader(http.StatusOK)
}
