package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearch(t *testing.T) {
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]string{
				{"title": "One", "url": "https://example.com/1", "content": "snippet one", "raw_content": "full one"},
				{"title": "Two", "url": "https://example.com/2", "content": "snippet two"},
				{"title": "Three", "url": "https://example.com/3", "content": "snippet three"},
			},
		})
	}))
	defer srv.Close()

	s := Search{ApiKey: "key", BaseURL: srv.URL}
	results, err := s.Search(context.Background(), "jane doe acme", 2, true)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results must be capped at k=2, got %d", len(results))
	}
	if results[0].URL != "https://example.com/1" || results[0].Snippet != "snippet one" || results[0].RawContent != "full one" {
		t.Fatalf("result mapping wrong: %+v", results[0])
	}
	if results[0].Query != "jane doe acme" {
		t.Fatalf("originating query not recorded: %+v", results[0])
	}

	if gotPayload["api_key"] != "key" || gotPayload["query"] != "jane doe acme" {
		t.Fatalf("request payload wrong: %v", gotPayload)
	}
	if gotPayload["include_raw_content"] != true {
		t.Fatalf("include_raw_content not forwarded: %v", gotPayload)
	}
}

func TestSearchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []map[string]string{}})
	}))
	defer srv.Close()

	s := Search{ApiKey: "key", BaseURL: srv.URL, Client: &http.Client{Timeout: 20 * time.Millisecond}}
	if _, err := s.Search(context.Background(), "q", 3, false); err == nil {
		t.Fatal("expected timeout error from bounded client")
	}
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := Search{ApiKey: "key", BaseURL: srv.URL}
	if _, err := s.Search(context.Background(), "q", 3, false); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
