// Package rawg is a client for the RAWG video game catalog API.
package rawg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.rawg.io/api"

// throttleCooldown is how long to wait after a 429 before retrying.
// Deliberately longer than the provider's rate window so a retry after
// the cooldown starts from a clean budget.
const defaultThrottleCooldown = 70 * time.Second

// Sentinel errors for RAWG API responses.
var (
	ErrNotFound     = errors.New("game not found")
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
)

// Limiter gates outgoing requests. Every API call acquires exactly once.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Client is a RAWG API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    Limiter
	cooldown   time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithThrottleCooldown sets the wait applied after a 429 response.
func WithThrottleCooldown(d time.Duration) Option {
	return func(c *Client) {
		c.cooldown = d
	}
}

// WithSleep sets a custom sleep function (for testing).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "rawg")
	}
}

// New creates a new RAWG client. All calls pass through the limiter.
func New(apiKey string, limiter Limiter, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:  limiter,
		cooldown: defaultThrottleCooldown,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListGames fetches one page of games ordered by rating descending, so
// repeated listings at the same offset are stable for the life of a job.
// minScore is passed as a provider-side metacritic floor.
func (c *Client) ListGames(ctx context.Context, page, pageSize, minScore int) (*Page, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("page_size", fmt.Sprint(pageSize))
	q.Set("ordering", "-metacritic")
	if minScore > 0 {
		q.Set("metacritic", fmt.Sprintf("%d,100", minScore))
	}

	var listResp listResponse
	if err := c.get(ctx, "/games?"+q.Encode(), &listResp); err != nil {
		return nil, err
	}

	result := &Page{
		Count:   listResp.Count,
		HasNext: listResp.Next != "",
	}
	for _, g := range listResp.Results {
		result.Results = append(result.Results, g.toGame())
	}

	if c.log != nil {
		c.log.Debug("listed games", "page", page, "results", len(result.Results),
			"total", result.Count, "duration_ms", time.Since(start).Milliseconds())
	}

	return result, nil
}

// GetGame fetches the detail record for one game (developer/publisher
// enrichment).
func (c *Client) GetGame(ctx context.Context, id int64) (*GameDetail, error) {
	var detailResp detailResponse
	if err := c.get(ctx, fmt.Sprintf("/games/%d", id), &detailResp); err != nil {
		if c.log != nil && errors.Is(err, ErrNotFound) {
			c.log.Debug("game not found", "id", id)
		}
		return nil, err
	}
	return detailResp.toDetail(), nil
}

// ListScreenshots fetches the screenshot references for one game.
func (c *Client) ListScreenshots(ctx context.Context, id int64) ([]Screenshot, error) {
	var shotsResp screenshotsResponse
	if err := c.get(ctx, fmt.Sprintf("/games/%d/screenshots", id), &shotsResp); err != nil {
		return nil, err
	}

	shots := make([]Screenshot, 0, len(shotsResp.Results))
	for _, s := range shotsResp.Results {
		shots = append(shots, Screenshot{ID: s.ID, Image: s.Image})
	}
	return shots, nil
}

// get performs a rate-limited GET and decodes the JSON body into out.
// A 429 from the provider is never surfaced: the client waits a generous
// cooldown and retries the same call, as many times as it takes.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	for {
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}

		resp, err := c.doRequest(ctx, endpoint)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if c.log != nil {
				c.log.Warn("provider throttled, cooling down", "cooldown", c.cooldown)
			}
			if err := c.sleep(ctx, c.cooldown); err != nil {
				return err
			}
			continue
		}

		if err := c.checkResponse(resp); err != nil {
			resp.Body.Close()
			return err
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	sep := "?"
	if u, err := url.Parse(endpoint); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	full := c.baseURL + endpoint + sep + "key=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func (c *Client) checkResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("RAWG API error: %s", resp.Status)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
