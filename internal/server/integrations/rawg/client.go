// Package rawg looks games up in the RAWG catalog.
package rawg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/config"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/tidwall/gjson"
)

const searchPageSize = 5

// Details is the catalog view shown next to a library entry.
type Details struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Released    string   `json:"released,omitempty"`
	Metacritic  *int64   `json:"metacritic,omitempty"`
	Website     string   `json:"website,omitempty"`
	Developers  []string `json:"developers"`
	Genres      []string `json:"genres"`
	Platforms   []string `json:"platforms"`
	CoverURL    string   `json:"cover_url,omitempty"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(httpClient *http.Client, cfg *config.Config) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.RAWGBaseURL, "/"),
		apiKey:     cfg.RAWGAPIKey,
	}
}

// Enabled reports whether an API key is set.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Match searches for title and picks the result whose name equals it
// case-insensitively, or the top result. ok is false when nothing matched.
func (c *Client) Match(ctx context.Context, title string) (e models.GameEnrichment, ok bool, err error) {
	q := url.Values{}
	q.Set("search", title)
	q.Set("page_size", strconv.Itoa(searchPageSize))

	body, err := c.get(ctx, "/games", q)
	if err != nil {
		return e, false, err
	}

	results := gjson.GetBytes(body, "results").Array()
	if len(results) == 0 {
		return e, false, nil
	}

	pick := results[0]
	for _, r := range results {
		if strings.EqualFold(r.Get("name").String(), title) {
			pick = r
			break
		}
	}

	return models.GameEnrichment{
		RAWGID:   pick.Get("id").Int(),
		Slug:     pick.Get("slug").String(),
		Genre:    pick.Get("genres.0.name").String(),
		CoverURL: pick.Get("background_image").String(),
	}, true, nil
}

// Details fetches the catalog record for id.
func (c *Client) Details(ctx context.Context, id int64) (*Details, error) {
	body, err := c.get(ctx, "/games/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(body)
	d := &Details{
		ID:          res.Get("id").Int(),
		Name:        res.Get("name").String(),
		Description: res.Get("description_raw").String(),
		Released:    res.Get("released").String(),
		Website:     res.Get("website").String(),
		CoverURL:    res.Get("background_image").String(),
		Developers:  names(res.Get("developers.#.name")),
		Genres:      names(res.Get("genres.#.name")),
		Platforms:   names(res.Get("platforms.#.platform.name")),
	}
	if m := res.Get("metacritic"); m.Exists() && m.Type == gjson.Number {
		v := m.Int()
		d.Metacritic = &v
	}
	return d, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if !c.Enabled() {
		return nil, common.ErrorNotConfigured
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build rawg request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the url carries the key; keep it out of logs
		var ue *url.Error
		if errors.As(err, &ue) {
			return nil, fmt.Errorf("rawg request: %w", ue.Err)
		}
		return nil, fmt.Errorf("rawg request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, common.ErrorNotFound
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &common.UpstreamError{Service: "rawg", StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read rawg response: %w", err)
	}
	return body, nil
}

func names(r gjson.Result) []string {
	out := []string{}
	for _, v := range r.Array() {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
