package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/config"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
	DefaultType  = "track"
)

// SearchParams is one catalog query.
type SearchParams struct {
	Query string
	Type  string
	Limit int
}

// Normalize applies the defaults and clamps Limit into 1..50.
func (p SearchParams) Normalize() SearchParams {
	p.Query = strings.TrimSpace(p.Query)
	if p.Type == "" {
		p.Type = DefaultType
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

type Client struct {
	httpClient *http.Client
	tokens     *TokenSource
	apiURL     string
	market     string
	configured bool
}

func NewClient(httpClient *http.Client, cfg *config.Config) *Client {
	return &Client{
		httpClient: httpClient,
		tokens:     NewTokenSource(httpClient, cfg.SpotifyTokenURL, cfg.SpotifyClientID, cfg.SpotifyClientSecret),
		apiURL:     strings.TrimRight(cfg.SpotifyAPIURL, "/"),
		market:     cfg.SpotifyMarket,
		configured: cfg.SpotifyConfigured(),
	}
}

// Search runs p against /search and returns the upstream JSON untouched.
// A non-2xx answer is reported as *common.UpstreamError.
func (c *Client) Search(ctx context.Context, p SearchParams) (json.RawMessage, error) {
	p = p.Normalize()
	if p.Query == "" {
		return nil, common.NewValidationError(`parameter "q" is required`)
	}
	if !c.configured {
		return nil, common.ErrorNotConfigured
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("type", p.Type)
	q.Set("limit", strconv.Itoa(p.Limit))
	if c.market != "" {
		q.Set("market", c.market)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &common.UpstreamError{Service: "spotify", StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("spotify search returned invalid json: %w", common.ErrorUpstream)
	}
	return json.RawMessage(body), nil
}
