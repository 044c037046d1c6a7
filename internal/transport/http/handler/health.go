package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type attemptCounter interface {
	Len() int
}

// HealthEnvelope is the data of a successful health check.
type HealthEnvelope struct {
	LiveAttempts int `json:"liveAttempts"`
}

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	attempts attemptCounter
}

func NewHealthHandler(attempts attemptCounter) *HealthHandler {
	return &HealthHandler{attempts: attempts}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if action != "ping" {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	var live int
	if h.attempts != nil {
		live = h.attempts.Len()
	}
	writeOK(w, "pong", HealthEnvelope{LiveAttempts: live})
}
