package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-scan-login/internal/application/login"
	"github.com/go-scan-login/internal/application/webhook"
	"github.com/go-scan-login/internal/config"
	jwtinfra "github.com/go-scan-login/internal/infrastructure/jwt"
	"github.com/go-scan-login/internal/pkg/scene"
	"github.com/go-scan-login/internal/transport/http/handler"
	appmiddleware "github.com/go-scan-login/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Registry AttemptRegistry
	Platform PlatformClient
	Tokens   TokenSource
	Scenes   scene.Allocator
	// JWTProvider is nil when no signing keys are configured; logins then resolve without a session token.
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(appmiddleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	loginDeps := login.ServiceDeps{
		Tokens:    deps.Tokens,
		Minter:    deps.Platform,
		Images:    deps.Platform,
		Registry:  deps.Registry,
		Scenes:    deps.Scenes,
		TicketTTL: time.Duration(cfg.WeChat.QRCodeExpireSeconds) * time.Second,
	}
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		loginDeps.Signer = deps.JWTProvider
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	webhookMw := func(next http.Handler) http.Handler { return next }
	if cfg.WeChat.VerifyPost {
		webhookMw = appmiddleware.WeChatSignature(cfg.WeChat.Token)
	}

	loginSvc := login.NewService(loginDeps)
	dispatcher := webhook.NewDispatcher(deps.Registry)

	healthH := handler.NewHealthHandler(deps.Registry)
	authH := handler.NewAuthHandler(loginSvc)
	wechatH := handler.NewWeChatHandler(loginSvc)
	webhookH := handler.NewWebhookHandler(dispatcher, cfg.WeChat.Token)

	r.Get("/health-check/{action}", healthH.Ping)
	r.Post("/health-check/{action}", healthH.Ping)

	// Platform callback, also reachable at the short path configured in the account console.
	r.Get("/webhook", webhookH.Verify)
	r.With(webhookMw).Post("/webhook", webhookH.Receive)

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/qrcode", authH.QRCode)
		r.Get("/status", authH.Status)
		r.With(authMw).Get("/me", authH.Me)
	})

	r.Route("/api/v1/wechat", func(r chi.Router) {
		r.Get("/webhook", webhookH.Verify)
		r.With(webhookMw).Post("/webhook", webhookH.Receive)
		r.Get("/qrcode/ticket", wechatH.Ticket)
		r.Get("/qrcode/image", wechatH.Image)
		r.Get("/qrcode/base64", wechatH.Base64)
		r.Get("/login/status", wechatH.LoginStatus)
	})

	return r
}
