package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/prospector/tools/web_search/models"
)

const defaultBaseURL = "https://api.tavily.com"

type Search struct {
	ApiKey  string
	BaseURL string       // overridable for tests
	Client  *http.Client // bounds each call; nil falls back to http.DefaultClient
}

func (s Search) httpClient() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s Search) Search(ctx context.Context, q string, k int, includeRaw bool) ([]models.Result, error) {
	// https://docs.tavily.com/ search API
	payload := map[string]any{
		"api_key":             s.ApiKey,
		"query":               q,
		"max_results":         k,
		"include_raw_content": includeRaw,
		"topic":               "general",
		"days":                360,
	}
	body, _ := json.Marshal(payload)

	base := s.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	req, _ := http.NewRequestWithContext(ctx, "POST", base+"/search", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily status %d", resp.StatusCode)
	}

	var raw struct {
		Results []struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			Content    string `json:"content"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []models.Result
	for i, r := range raw.Results {
		if i >= k {
			break
		}
		out = append(out, models.Result{
			Title: r.Title, URL: r.URL, Snippet: r.Content, RawContent: r.RawContent, Query: q,
		})
	}
	return out, nil
}
