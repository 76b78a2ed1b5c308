package web_fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Bio</title></head><body>
			<article><h1>Jane Doe</h1>
			<p>Jane Doe is a staff engineer at Acme working on infrastructure.</p>
			<p>She previously led the platform team at Initech for five years.</p>
			</article></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(0, 0)
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !strings.Contains(text, "staff engineer at Acme") {
		t.Fatalf("readable text missing article body: %q", text)
	}
	if strings.Contains(text, "\n") {
		t.Fatalf("whitespace should be collapsed: %q", text)
	}
}

func TestFetchTrimsToMaxChars(t *testing.T) {
	body := strings.Repeat("word ", 2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><article><p>%s</p></article></body></html>`, body)
	}))
	defer srv.Close()

	f := NewFetcher(0, 100)
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(text) > 100 {
		t.Fatalf("text exceeds max chars: %d", len(text))
	}
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(0, 0)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}
