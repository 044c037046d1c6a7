package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	jwtinfra "github.com/go-scan-login/internal/infrastructure/jwt"
)

type sessionKey struct{}

var (
	errNoBearer   = errors.New("missing or invalid authorization header")
	errBadSession = errors.New("invalid or expired token")
)

// TokenVerifier validates a session bearer token.
type TokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

// Auth admits requests carrying a session token for a resolved login. The
// verified claims are available to handlers through ClaimsFromContext.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := session(r, verifier)
			if err != nil {
				slog.Info("session rejected",
					"path", r.URL.Path,
					"request_id", chimiddleware.GetReqID(r.Context()),
					"err", err)
				writeJSONError(w, http.StatusUnauthorized, rejection(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func session(r *http.Request, verifier TokenVerifier) (*jwtinfra.Claims, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, errNoBearer
	}
	claims, err := verifier.Verify(raw)
	if err != nil {
		return nil, errors.Join(errBadSession, err)
	}
	// A session always names the scanning user.
	if claims == nil || claims.OpenID == "" {
		return nil, errors.Join(errBadSession, errors.New("token carries no open id"))
	}
	return claims, nil
}

func rejection(err error) string {
	if errors.Is(err, errNoBearer) {
		return errNoBearer.Error()
	}
	return errBadSession.Error()
}

// bearerToken reads "Authorization: Bearer <token>". The scheme is case-insensitive.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithClaims returns ctx carrying the session claims.
func WithClaims(ctx context.Context, claims *jwtinfra.Claims) context.Context {
	return context.WithValue(ctx, sessionKey{}, claims)
}

// ClaimsFromContext returns the session claims stored by Auth.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(sessionKey{}).(*jwtinfra.Claims)
	return c, ok && c != nil
}
