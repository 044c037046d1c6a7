package handler

import (
	"net/http"

	"github.com/go-scan-login/internal/application/login"
	"github.com/go-scan-login/internal/transport/http/middleware"
)

// AuthHandler serves the browser-facing scan-to-login endpoints.
type AuthHandler struct {
	svc login.Service
}

func NewAuthHandler(svc login.Service) *AuthHandler { return &AuthHandler{svc: svc} }

// QRCode starts a login and returns the ticket with the QR image inlined.
// If the image cannot be fetched the attempt stays registered as pending;
// it is evicted only when a login attempt TTL is configured.
func (h *AuthHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	lt, err := h.svc.StartLogin(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	img, err := h.svc.QRCodeImage(r.Context(), lt.Ticket)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, "qrcode created", QRCodeEnvelope{TicketID: lt.Ticket, ImageBase64: imageDataURI(img)})
}

// Status reports whether the ticket has been confirmed. Unknown tickets read as waiting.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		ticket = r.URL.Query().Get("qrCodeId")
	}
	res, err := h.svc.PollLogin(r.Context(), ticket)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !res.Resolved() {
		writeOK(w, "waiting for scan", LoginStatusEnvelope{Status: statusWaiting})
		return
	}
	writeOK(w, "login succeeded", LoginStatusEnvelope{
		Status:   statusSuccess,
		UserInfo: &UserInfo{OpenID: res.OpenID},
		Token:    res.Token,
	})
}

// Me returns the identity carried by the session bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeOK(w, "success", UserInfo{OpenID: claims.OpenID})
}
