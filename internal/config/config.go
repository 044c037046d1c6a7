package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-scan-login/internal/pkg/validate"
)

// DefaultQRCodeExpireSeconds is the ticket validity requested from the platform (7 days).
const DefaultQRCodeExpireSeconds = 604800

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string   `env:"APP_PORT" validate:"required"`
	AppEnv         string   `env:"APP_ENV"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"` // CORS allowed origins

	WeChat WeChat

	// LoginAttemptTTL of zero keeps attempts for the process lifetime.
	LoginAttemptTTL    time.Duration `env:"LOGIN_ATTEMPT_TTL_SECONDS" validate:"min=0"`
	LoginSweepInterval time.Duration `env:"LOGIN_SWEEP_INTERVAL_SECONDS" validate:"min=0"`

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY_HOURS"`
}

// WeChat holds the official-account credentials and upstream endpoints.
type WeChat struct {
	AppID               string        `env:"WECHAT_APP_ID" validate:"required"`
	AppSecret           string        `env:"WECHAT_APP_SECRET" validate:"required"`
	Token               string        `env:"WECHAT_TOKEN" validate:"required"`
	QRCodeExpireSeconds int           `env:"WECHAT_QRCODE_EXPIRE_SECONDS" validate:"min=60,max=2592000"`
	APIBaseURL          string        `env:"WECHAT_API_BASE_URL" validate:"required,url"`
	QRCodeBaseURL       string        `env:"WECHAT_QRCODE_BASE_URL" validate:"required,url"`
	HTTPTimeout         time.Duration `env:"WECHAT_HTTP_TIMEOUT_SECONDS" validate:"gt=0"`
	TokenRefreshMargin  time.Duration `env:"WECHAT_TOKEN_REFRESH_MARGIN_SECONDS" validate:"min=0"`
	VerifyPost          bool          `env:"WECHAT_VERIFY_POST"`
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		WeChat: WeChat{
			AppID:               getEnv("WECHAT_APP_ID", ""),
			AppSecret:           getEnv("WECHAT_APP_SECRET", ""),
			Token:               getEnv("WECHAT_TOKEN", ""),
			QRCodeExpireSeconds: getEnvInt("WECHAT_QRCODE_EXPIRE_SECONDS", DefaultQRCodeExpireSeconds),
			APIBaseURL:          getEnv("WECHAT_API_BASE_URL", "https://api.weixin.qq.com"),
			QRCodeBaseURL:       getEnv("WECHAT_QRCODE_BASE_URL", "https://mp.weixin.qq.com"),
			HTTPTimeout:         getEnvSeconds("WECHAT_HTTP_TIMEOUT_SECONDS", 10),
			TokenRefreshMargin:  getEnvSeconds("WECHAT_TOKEN_REFRESH_MARGIN_SECONDS", 300),
			VerifyPost:          getEnvBool("WECHAT_VERIFY_POST", true),
		},
		LoginAttemptTTL:    getEnvSeconds("LOGIN_ATTEMPT_TTL_SECONDS", 0),
		LoginSweepInterval: getEnvSeconds("LOGIN_SWEEP_INTERVAL_SECONDS", 60),
		JWTPrivateKeyPath:  getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:   getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:          time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
	}
}

// Validate checks required credentials and ranges.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// IsProduction reports whether APP_ENV selects production behaviour (JSON logs).
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
