package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-scan-login/internal/config"
	jwtinfra "github.com/go-scan-login/internal/infrastructure/jwt"
	"github.com/go-scan-login/internal/infrastructure/memory"
	"github.com/go-scan-login/internal/infrastructure/wechat"
	"github.com/go-scan-login/internal/pkg/scene"
	transporthttp "github.com/go-scan-login/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	registry := memory.NewRegistry(memory.Options{
		TTL:           cfg.LoginAttemptTTL,
		SweepInterval: cfg.LoginSweepInterval,
	})
	defer registry.Close()

	client := wechat.NewClient(cfg.WeChat)
	tokens := wechat.NewTokenCache(client, cfg.WeChat.AppID, cfg.WeChat.AppSecret, cfg.WeChat.TokenRefreshMargin)

	// JWT provider (optional: logins still resolve without a session token).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		slog.Warn("JWT provider not available", "err", err)
	}

	deps := &transporthttp.Deps{
		Registry:    registry,
		Platform:    client,
		Tokens:      tokens,
		Scenes:      scene.NewClockAllocator(),
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "verify_post", cfg.WeChat.VerifyPost)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
		return
	}
	slog.Info("server stopped")
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
