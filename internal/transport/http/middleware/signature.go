package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-scan-login/internal/pkg/signature"
)

// WeChatSignature rejects webhook deliveries whose signature/timestamp/nonce
// query parameters do not match token. Rejected requests get the literal
// plaintext "error" the platform handshake uses.
func WeChatSignature(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if !signature.Verify(q.Get("signature"), q.Get("timestamp"), q.Get("nonce"), token) {
				slog.Warn("webhook signature rejected",
					"method", r.Method,
					"timestamp", q.Get("timestamp"),
					"nonce", q.Get("nonce"),
				)
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte("error"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
