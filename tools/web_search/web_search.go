package web_search

import (
	"context"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/prospector/tools/web_search/brave"
	"github.com/mohammad-safakhou/prospector/tools/web_search/models"
	"github.com/mohammad-safakhou/prospector/tools/web_search/serper"
	"github.com/mohammad-safakhou/prospector/tools/web_search/tavily"
)

type WebSearcher interface {
	Search(ctx context.Context, q string, k int, includeRaw bool) ([]models.Result, error)
}

type Provider string

const (
	TavilyProvider Provider = "tavily"
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = &Error{"unsupported provider"}

type Error struct{ Msg string }

func (e *Error) Error() string { return e.Msg }

// NewWebSearcher builds the named backend. timeout bounds each search call at
// the HTTP client; zero falls back to 20s.
func NewWebSearcher(provider Provider, apiKey string, timeout time.Duration) (WebSearcher, error) {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	switch provider {
	case TavilyProvider:
		return tavily.Search{ApiKey: apiKey, Client: client}, nil
	case SerperProvider:
		return serper.Search{ApiKey: apiKey, Client: client}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey, Client: client}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
