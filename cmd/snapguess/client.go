package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps HTTP calls to the snapguess server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new snapguess API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// API response types (mirror server types)

type JobResponse struct {
	ID                    string  `json:"id"`
	Status                string  `json:"status"`
	BatchSize             int     `json:"batch_size"`
	MinQuality            int     `json:"min_quality"`
	ScreenshotsPerGame    int     `json:"screenshots_per_game"`
	TargetGames           int     `json:"target_games,omitempty"`
	TotalAvailable        *int    `json:"total_available,omitempty"`
	CurrentPage           int     `json:"current_page"`
	CurrentBatch          int     `json:"current_batch"`
	TotalBatches          *int    `json:"total_batches,omitempty"`
	GamesProcessed        int     `json:"games_processed"`
	GamesImported         int     `json:"games_imported"`
	GamesSkipped          int     `json:"games_skipped"`
	ScreenshotsDownloaded int     `json:"screenshots_downloaded"`
	FailedCount           int     `json:"failed_count"`
	CreatedAt             string  `json:"created_at"`
	StartedAt             *string `json:"started_at,omitempty"`
	PausedAt              *string `json:"paused_at,omitempty"`
	CompletedAt           *string `json:"completed_at,omitempty"`
}

type ListJobsResponse struct {
	Items []JobResponse `json:"items"`
	Total int           `json:"total"`
}

type StartImportRequest struct {
	BatchSize          int `json:"batch_size,omitempty"`
	MinQuality         int `json:"min_quality,omitempty"`
	ScreenshotsPerGame int `json:"screenshots_per_game,omitempty"`
	TargetGames        int `json:"target_games,omitempty"`
}

type GameResponse struct {
	ID           int64    `json:"id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Released     string   `json:"released,omitempty"`
	Developer    string   `json:"developer,omitempty"`
	Publisher    string   `json:"publisher,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	QualityScore int      `json:"quality_score"`
	Screenshots  int      `json:"screenshots,omitempty"`
}

type ListGamesResponse struct {
	Items  []GameResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type MatchResponse struct {
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	EventType  string `json:"event_type"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	OccurredAt string `json:"occurred_at"`
}

type ListEventsResponse struct {
	Items []EventResponse `json:"items"`
	Total int             `json:"total"`
}

type StatusResponse struct {
	Status      string `json:"status"`
	Games       int    `json:"games"`
	Screenshots int    `json:"screenshots"`
}

type VerifyProblem struct {
	GameID int64    `json:"game_id"`
	Slug   string   `json:"slug"`
	Title  string   `json:"title"`
	Issue  string   `json:"issue"`
	Fixes  []string `json:"suggested_fixes"`
}

type VerifyResponse struct {
	Connections struct {
		Provider    bool   `json:"provider"`
		ProviderErr string `json:"provider_error,omitempty"`
	} `json:"connections"`
	Checked  int             `json:"checked"`
	Passed   int             `json:"passed"`
	Problems []VerifyProblem `json:"problems"`
}

// API methods

func (c *Client) StartImport(req *StartImportRequest) (*JobResponse, error) {
	var resp JobResponse
	if err := c.post("/api/v1/import", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PauseImport(id string) (*JobResponse, error) {
	var resp JobResponse
	if err := c.post("/api/v1/import/"+url.PathEscape(id)+"/pause", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ResumeImport(id string) (*JobResponse, error) {
	var resp JobResponse
	if err := c.post("/api/v1/import/"+url.PathEscape(id)+"/resume", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetImport(id string) (*JobResponse, error) {
	var resp JobResponse
	if err := c.get("/api/v1/import/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ActiveImport() (*JobResponse, error) {
	var resp JobResponse
	if err := c.get("/api/v1/import/active", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListImports(limit int) (*ListJobsResponse, error) {
	var resp ListJobsResponse
	if err := c.get(fmt.Sprintf("/api/v1/import?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ImportEvents(id string) (*ListEventsResponse, error) {
	var resp ListEventsResponse
	if err := c.get("/api/v1/import/"+url.PathEscape(id)+"/events", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Games(minScore int, limit, offset int) (*ListGamesResponse, error) {
	params := url.Values{}
	if minScore > 0 {
		params.Set("min_score", fmt.Sprint(minScore))
	}
	params.Set("limit", fmt.Sprint(limit))
	params.Set("offset", fmt.Sprint(offset))

	var resp ListGamesResponse
	if err := c.get("/api/v1/games?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SearchGames(query string, limit int) ([]MatchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprint(limit))

	var resp []MatchResponse
	if err := c.get("/api/v1/games?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Events(limit int) (*ListEventsResponse, error) {
	var resp ListEventsResponse
	if err := c.get(fmt.Sprintf("/api/v1/events?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Verify(id *int64) (*VerifyResponse, error) {
	path := "/api/v1/verify"
	if id != nil {
		path += fmt.Sprintf("?id=%d", *id)
	}
	var resp VerifyResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
