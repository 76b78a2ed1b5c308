// Package web_fetch retrieves a page over plain HTTP and extracts readable
// text. Used to enrich search hits whose provider returned no raw content.
package web_fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

var reSpaces = regexp.MustCompile(`\s+`)

type Fetcher struct {
	Client   *http.Client
	MaxChars int
}

func NewFetcher(timeout time.Duration, maxChars int) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxChars <= 0 {
		maxChars = 12000
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, MaxChars: maxChars}
}

// Fetch downloads url and returns its readable text content, trimmed to
// MaxChars. Unreadable or non-HTML pages yield an empty string, not an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	u, err := nurl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), u)
	if err != nil {
		return "", nil
	}
	text := strings.TrimSpace(reSpaces.ReplaceAllString(article.TextContent, " "))
	if len(text) > f.MaxChars {
		text = text[:f.MaxChars]
	}
	return text, nil
}
