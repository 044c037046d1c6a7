package wechat

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// fetchTimeout bounds a shared upstream fetch, which runs detached from any caller's context.
const fetchTimeout = 30 * time.Second

// TokenFetcher is the upstream access-token exchange.
type TokenFetcher interface {
	FetchAccessToken(ctx context.Context, appID, secret string) (*AccessToken, error)
}

// TokenCache keeps the current access token until margin before it expires.
// Concurrent misses share one upstream call.
type TokenCache struct {
	fetcher TokenFetcher
	appID   string
	secret  string
	margin  time.Duration
	now     func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	value string
	until time.Time
}

func NewTokenCache(fetcher TokenFetcher, appID, secret string, margin time.Duration) *TokenCache {
	return &TokenCache{
		fetcher: fetcher,
		appID:   appID,
		secret:  secret,
		margin:  margin,
		now:     time.Now,
	}
}

// AccessToken returns a cached token or fetches a fresh one. Errors are not cached.
// The shared fetch runs detached from ctx so one caller going away does not
// fail the others waiting on it; each caller still stops waiting when its own
// ctx is done.
func (c *TokenCache) AccessToken(ctx context.Context) (string, error) {
	if v, ok := c.cached(); ok {
		return v, nil
	}
	ch := c.group.DoChan(c.appID, func() (interface{}, error) {
		if v, ok := c.cached(); ok {
			return v, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		tok, err := c.fetcher.FetchAccessToken(fetchCtx, c.appID, c.secret)
		if err != nil {
			return "", err
		}
		c.store(tok)
		return tok.Value, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the cached token so the next call refetches it.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.value, c.until = "", time.Time{}
	c.mu.Unlock()
}

func (c *TokenCache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.value == "" || !c.now().Before(c.until) {
		return "", false
	}
	return c.value, true
}

func (c *TokenCache) store(tok *AccessToken) {
	life := tok.TTL - c.margin
	if life <= 0 {
		// Too short to cache; the next call fetches again.
		return
	}
	c.mu.Lock()
	c.value, c.until = tok.Value, c.now().Add(life)
	c.mu.Unlock()
}
