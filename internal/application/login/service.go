package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-scan-login/internal/domain"
	"github.com/go-scan-login/internal/pkg/scene"
)

// sceneAttempts bounds how many scene ids StartLogin tries before giving up.
const sceneAttempts = 3

// PollResult is what a client sees when it polls a ticket.
type PollResult struct {
	AttemptID string
	Status    domain.LoginStatus
	OpenID    string
	// Token is a signed session token, set once the attempt is resolved and a signer is configured.
	Token string
}

// Resolved reports whether the poll observed a confirmed user.
func (r *PollResult) Resolved() bool {
	return r.Status == domain.LoginStatusResolved && r.OpenID != ""
}

type Service interface {
	StartLogin(ctx context.Context) (*domain.LoginTicket, error)
	PollLogin(ctx context.Context, ticket string) (*PollResult, error)
	QRCodeImage(ctx context.Context, ticket string) ([]byte, error)
}

type tokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Invalidate()
}

type ticketMinter interface {
	CreateTicket(ctx context.Context, accessToken string, sceneID int32, ttl time.Duration) (string, error)
}

type imageRenderer interface {
	ImageURL(ticket string) string
	FetchImage(ctx context.Context, ticket string) ([]byte, error)
}

type attemptStore interface {
	Begin(ctx context.Context, sceneID int32, ticket string) (*domain.LoginAttempt, error)
	Poll(ctx context.Context, ticket string) domain.LoginState
	SceneInUse(sceneID int32) bool
}

type sessionSigner interface {
	Sign(openID, attemptID string) (string, error)
}

type service struct {
	tokens    tokenSource
	minter    ticketMinter
	images    imageRenderer
	registry  attemptStore
	scenes    scene.Allocator
	signer    sessionSigner
	ticketTTL time.Duration
}

type ServiceDeps struct {
	Tokens    tokenSource
	Minter    ticketMinter
	Images    imageRenderer
	Registry  attemptStore
	Scenes    scene.Allocator
	Signer    sessionSigner // optional
	TicketTTL time.Duration
}

func NewService(deps ServiceDeps) Service {
	scenes := deps.Scenes
	if scenes == nil {
		scenes = scene.NewClockAllocator()
	}
	return &service{
		tokens:    deps.Tokens,
		minter:    deps.Minter,
		images:    deps.Images,
		registry:  deps.Registry,
		scenes:    scenes,
		signer:    deps.Signer,
		ticketTTL: deps.TicketTTL,
	}
}

func (s *service) StartLogin(ctx context.Context) (*domain.LoginTicket, error) {
	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}
	sceneID, err := scene.AllocateUnique(s.scenes, s.registry.SceneInUse, sceneAttempts)
	if err != nil {
		return nil, fmt.Errorf("allocate scene id: %v: %w", err, domain.ErrConflict)
	}
	ticket, err := s.minter.CreateTicket(ctx, accessToken, sceneID, s.ticketTTL)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamMint) {
			// The cached token may have been revoked upstream.
			s.tokens.Invalidate()
		}
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	attempt, err := s.registry.Begin(ctx, sceneID, ticket)
	if err != nil {
		return nil, fmt.Errorf("register login attempt: %w", err)
	}
	slog.Info("login attempt started", "attempt_id", attempt.ID, "scene_id", sceneID)
	return &domain.LoginTicket{
		AttemptID: attempt.ID,
		SceneID:   sceneID,
		Ticket:    ticket,
		ImageURL:  s.images.ImageURL(ticket),
	}, nil
}

func (s *service) PollLogin(ctx context.Context, ticket string) (*PollResult, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return nil, fmt.Errorf("ticket is required: %w", domain.ErrBadRequest)
	}
	st := s.registry.Poll(ctx, ticket)
	res := &PollResult{AttemptID: st.AttemptID, Status: st.Status, OpenID: st.OpenID}
	if !res.Resolved() || s.signer == nil {
		return res, nil
	}
	tok, err := s.signer.Sign(st.OpenID, st.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	res.Token = tok
	return res, nil
}

func (s *service) QRCodeImage(ctx context.Context, ticket string) ([]byte, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return nil, fmt.Errorf("ticket is required: %w", domain.ErrBadRequest)
	}
	return s.images.FetchImage(ctx, ticket)
}
