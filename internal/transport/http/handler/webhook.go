package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-scan-login/internal/application/webhook"
	"github.com/go-scan-login/internal/pkg/signature"
)

const maxWebhookBody = 1 << 20

type messageDispatcher interface {
	Handle(ctx context.Context, body []byte, echo string) (string, error)
}

// WebhookHandler receives the platform's verification handshake and message deliveries.
type WebhookHandler struct {
	dispatcher messageDispatcher
	token      string
}

func NewWebhookHandler(dispatcher messageDispatcher, token string) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, token: token}
}

// Verify answers the GET handshake: echostr when the signature matches, "error" otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out := "error"
	if signature.Verify(q.Get("signature"), q.Get("timestamp"), q.Get("nonce"), h.token) {
		out = q.Get("echostr")
	} else {
		slog.Warn("webhook handshake rejected", "timestamp", q.Get("timestamp"), "nonce", q.Get("nonce"))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// Receive dispatches one delivery. The platform always gets a well-formed
// reply; undecodable payloads are acknowledged with the empty reply.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		// A truncated delivery is not a liveness check; never echo for it.
		slog.Warn("read webhook body failed", "err", err)
		writeXML(w, webhook.EmptyReply)
		return
	}
	out, err := h.dispatcher.Handle(r.Context(), body, r.URL.Query().Get("echostr"))
	if err != nil {
		slog.Warn("webhook payload rejected", "err", err, "size", len(body))
		out = webhook.EmptyReply
	}
	writeXML(w, out)
}

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
