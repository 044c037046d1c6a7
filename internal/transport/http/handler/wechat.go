package handler

import (
	"net/http"
	"strconv"

	"github.com/go-scan-login/internal/application/login"
)

// WeChatHandler serves the platform-facing ticket, image and status endpoints.
type WeChatHandler struct {
	svc login.Service
}

func NewWeChatHandler(svc login.Service) *WeChatHandler { return &WeChatHandler{svc: svc} }

func (h *WeChatHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	lt, err := h.svc.StartLogin(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, "success", lt.Ticket)
}

func (h *WeChatHandler) Image(w http.ResponseWriter, r *http.Request) {
	img, err := h.svc.QRCodeImage(r.Context(), r.URL.Query().Get("ticket"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (h *WeChatHandler) Base64(w http.ResponseWriter, r *http.Request) {
	img, err := h.svc.QRCodeImage(r.Context(), r.URL.Query().Get("ticket"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, "qrcode image fetched", imageDataURI(img))
}

// LoginStatus returns the confirmed open id, or 404 while the ticket is unresolved.
func (h *WeChatHandler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.PollLogin(r.Context(), r.URL.Query().Get("ticket"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !res.Resolved() {
		writeError(w, http.StatusNotFound, "not logged in or login timed out")
		return
	}
	writeOK(w, "login status checked", res.OpenID)
}
