package http

import (
	"context"
	"time"

	"github.com/go-scan-login/internal/domain"
)

// AttemptRegistry is the minimal interface the router requires from the login attempt store.
type AttemptRegistry interface {
	Begin(ctx context.Context, sceneID int32, ticket string) (*domain.LoginAttempt, error)
	Poll(ctx context.Context, ticket string) domain.LoginState
	ResolveByScene(ctx context.Context, sceneValue, openID string) (domain.ResolveOutcome, error)
	SceneInUse(sceneID int32) bool
	Len() int
}

// PlatformClient is the minimal interface the router requires from the platform API client.
type PlatformClient interface {
	CreateTicket(ctx context.Context, accessToken string, sceneID int32, ttl time.Duration) (string, error)
	ImageURL(ticket string) string
	FetchImage(ctx context.Context, ticket string) ([]byte, error)
}

// TokenSource is the minimal interface the router requires from the access-token cache.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Invalidate()
}
