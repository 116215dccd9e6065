// Package spotify proxies catalog search to the Spotify Web API using the
// server's own client credentials.
package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/tidwall/gjson"
)

// expiryMargin is subtracted from the upstream lifetime so a token is never
// used in its last minute.
const expiryMargin = 60 * time.Second

// minLifetime bounds how short a cached token may live when the upstream
// reports no lifetime, or one shorter than expiryMargin.
const minLifetime = 10 * time.Second

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenSource caches one client-credentials token per process.
//
// The slot is an atomic pointer without a lock: two requests that miss at the
// same time both fetch, and whichever stores last wins. Both tokens are valid.
type TokenSource struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time

	cached atomic.Pointer[cachedToken]
}

func NewTokenSource(httpClient *http.Client, tokenURL, clientID, clientSecret string) *TokenSource {
	return &TokenSource{
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

// Token returns the cached token while it is valid, otherwise fetches a new one.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	now := ts.now()
	if t := ts.cached.Load(); t != nil && now.Before(t.expiresAt) {
		return t.value, nil
	}

	t, err := ts.fetch(ctx, now)
	if err != nil {
		return "", err
	}
	ts.cached.Store(t)
	return t.value, nil
}

func (ts *TokenSource) fetch(ctx context.Context, now time.Time) (*cachedToken, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(ts.clientID, ts.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("spotify auth failed: %w", &common.UpstreamError{Service: "spotify", StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	res := gjson.GetManyBytes(body, "access_token", "expires_in")
	if res[0].String() == "" {
		return nil, fmt.Errorf("spotify token response without access_token: %w", common.ErrorUpstream)
	}

	lifetime := time.Duration(res[1].Int())*time.Second - expiryMargin
	if lifetime < minLifetime {
		lifetime = minLifetime
	}
	return &cachedToken{value: res[0].String(), expiresAt: now.Add(lifetime)}, nil
}
