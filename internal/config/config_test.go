package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WECHAT_APP_ID", "wx123")
	t.Setenv("WECHAT_APP_SECRET", "secret")
	t.Setenv("WECHAT_TOKEN", "token")

	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, DefaultQRCodeExpireSeconds, cfg.WeChat.QRCodeExpireSeconds)
	assert.Equal(t, "https://api.weixin.qq.com", cfg.WeChat.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.WeChat.HTTPTimeout)
	assert.True(t, cfg.WeChat.VerifyPost)
	assert.Zero(t, cfg.LoginAttemptTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WECHAT_APP_ID", "wx123")
	t.Setenv("WECHAT_APP_SECRET", "secret")
	t.Setenv("WECHAT_TOKEN", "token")
	t.Setenv("WECHAT_QRCODE_EXPIRE_SECONDS", "3600")
	t.Setenv("WECHAT_VERIFY_POST", "false")
	t.Setenv("LOGIN_ATTEMPT_TTL_SECONDS", "600")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg := Load()

	assert.Equal(t, 3600, cfg.WeChat.QRCodeExpireSeconds)
	assert.False(t, cfg.WeChat.VerifyPost)
	assert.Equal(t, 10*time.Minute, cfg.LoginAttemptTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestValidate_MissingCredentials(t *testing.T) {
	t.Setenv("WECHAT_APP_ID", "")
	t.Setenv("WECHAT_APP_SECRET", "")
	t.Setenv("WECHAT_TOKEN", "")

	err := Load().Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "WECHAT_APP_ID")
	assert.Contains(t, err.Error(), "WECHAT_APP_SECRET")
	assert.Contains(t, err.Error(), "WECHAT_TOKEN")
}

func TestValidate_ExpireOutOfRange(t *testing.T) {
	t.Setenv("WECHAT_APP_ID", "wx123")
	t.Setenv("WECHAT_APP_SECRET", "secret")
	t.Setenv("WECHAT_TOKEN", "token")
	t.Setenv("WECHAT_QRCODE_EXPIRE_SECONDS", "3000000")

	err := Load().Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "WECHAT_QRCODE_EXPIRE_SECONDS")
}
