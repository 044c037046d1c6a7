package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-scan-login/internal/domain"
)

// Envelope is the response wrapper every JSON endpoint uses. Code mirrors the HTTP status.
type Envelope struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// QRCodeEnvelope is the data of GET /api/auth/qrcode.
type QRCodeEnvelope struct {
	TicketID    string `json:"ticketId"`
	ImageBase64 string `json:"imageBase64"`
}

// UserInfo identifies the confirmed platform user.
type UserInfo struct {
	OpenID string `json:"openId"`
}

// LoginStatusEnvelope is the data of GET /api/auth/status.
type LoginStatusEnvelope struct {
	Status   string    `json:"status"`
	UserInfo *UserInfo `json:"userInfo,omitempty"`
	Token    string    `json:"token,omitempty"`
}

const (
	statusSuccess = "success"
	statusWaiting = "waiting"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, msg string, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Code: http.StatusOK, Message: msg, Data: data, Timestamp: time.Now().UnixMilli()})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Code: status, Message: msg, Timestamp: time.Now().UnixMilli()})
}

// writeServiceError maps a service error onto an envelope. Upstream failures
// keep their message so the platform's errcode reaches the caller; anything
// unrecognised is logged and hidden behind a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUpstreamAuth),
		errors.Is(err, domain.ErrUpstreamMint),
		errors.Is(err, domain.ErrUpstream),
		errors.Is(err, domain.ErrConflict):
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		slog.Error("unexpected error", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func imageDataURI(img []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)
}
