// Package wechat talks to the official-account HTTP API: access tokens,
// temporary scene QR tickets and the QR image renderer.
package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-scan-login/internal/config"
	"github.com/go-scan-login/internal/domain"
)

const (
	tokenPath    = "/cgi-bin/token"
	qrcodePath   = "/cgi-bin/qrcode/create"
	showQRPath   = "/cgi-bin/showqrcode"
	actionScene  = "QR_SCENE"
	maxImageSize = 4 << 20
)

// AccessToken is a short-lived bearer credential for the platform API.
type AccessToken struct {
	Value string
	TTL   time.Duration
}

// apiError is the errcode/errmsg pair every platform response may carry.
type apiError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	apiError
}

type qrcodeRequest struct {
	ExpireSeconds int          `json:"expire_seconds"`
	ActionName    string       `json:"action_name"`
	ActionInfo    qrActionInfo `json:"action_info"`
}

type qrActionInfo struct {
	Scene qrScene `json:"scene"`
}

type qrScene struct {
	SceneID int32 `json:"scene_id"`
}

type qrcodeResponse struct {
	Ticket        string `json:"ticket"`
	ExpireSeconds int    `json:"expire_seconds"`
	URL           string `json:"url"`
	apiError
}

// Client calls the platform API over plain HTTP.
type Client struct {
	http      *http.Client
	apiBase   string
	imageBase string
}

func NewClient(cfg config.WeChat) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		apiBase:   strings.TrimRight(cfg.APIBaseURL, "/"),
		imageBase: strings.TrimRight(cfg.QRCodeBaseURL, "/"),
	}
}

// FetchAccessToken exchanges the app id and secret for an access token.
// A response without a token is reported as domain.ErrUpstreamAuth.
func (c *Client) FetchAccessToken(ctx context.Context, appID, secret string) (*AccessToken, error) {
	appID, secret = strings.TrimSpace(appID), strings.TrimSpace(secret)
	if appID == "" || secret == "" {
		return nil, fmt.Errorf("app id and secret are required: %w", domain.ErrBadRequest)
	}
	q := url.Values{}
	q.Set("grant_type", "client_credential")
	q.Set("appid", appID)
	q.Set("secret", secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+tokenPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	var out tokenResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		slog.Error("access token request rejected", "errcode", out.ErrCode, "errmsg", out.ErrMsg)
		return nil, fmt.Errorf("access token error [%d] %s: %w", out.ErrCode, out.ErrMsg, domain.ErrUpstreamAuth)
	}
	return &AccessToken{Value: out.AccessToken, TTL: time.Duration(out.ExpiresIn) * time.Second}, nil
}

// CreateTicket mints a temporary QR_SCENE ticket for sceneID valid for ttl.
func (c *Client) CreateTicket(ctx context.Context, accessToken string, sceneID int32, ttl time.Duration) (string, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return "", fmt.Errorf("access token is required: %w", domain.ErrBadRequest)
	}
	if sceneID <= 0 {
		return "", fmt.Errorf("scene id must be positive: %w", domain.ErrBadRequest)
	}
	body, err := json.Marshal(qrcodeRequest{
		ExpireSeconds: int(ttl / time.Second),
		ActionName:    actionScene,
		ActionInfo:    qrActionInfo{Scene: qrScene{SceneID: sceneID}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal qrcode request: %w", err)
	}
	q := url.Values{}
	q.Set("access_token", accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+qrcodePath+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build qrcode request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out qrcodeResponse
	if err := c.doJSON(req, &out); err != nil {
		return "", err
	}
	switch {
	case out.Ticket != "":
		return out.Ticket, nil
	case out.ErrCode != 0:
		slog.Error("qrcode api returned error", "errcode", out.ErrCode, "errmsg", out.ErrMsg, "scene_id", sceneID)
		return "", fmt.Errorf("qrcode api error [%d] %s: %w", out.ErrCode, out.ErrMsg, domain.ErrUpstreamMint)
	default:
		return "", fmt.Errorf("qrcode api returned no ticket: %w", domain.ErrUpstreamMint)
	}
}

// ImageURL returns the renderer URL for ticket.
func (c *Client) ImageURL(ticket string) string {
	return c.imageBase + showQRPath + "?ticket=" + url.QueryEscape(ticket)
}

// FetchImage downloads the rendered QR image for ticket.
func (c *Client) FetchImage(ctx context.Context, ticket string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ImageURL(ticket), nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch qrcode image: %v: %w", err, domain.ErrUpstream)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch qrcode image: status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("read qrcode image: %v: %w", err, domain.ErrUpstream)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("qrcode image missing or expired: %w", domain.ErrUpstream)
	}
	return img, nil
}

func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", req.Method, req.URL.Path, err, domain.ErrUpstream)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %v: %w", req.URL.Path, err, domain.ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %w", req.URL.Path, resp.StatusCode, domain.ErrUpstream)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response %q: %v: %w", req.URL.Path, truncate(raw, 200), err, domain.ErrUpstream)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
