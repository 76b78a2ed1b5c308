package web_search

import (
	"testing"
	"time"

	"github.com/mohammad-safakhou/prospector/tools/web_search/tavily"
)

func TestNewWebSearcherAppliesTimeout(t *testing.T) {
	s, err := NewWebSearcher(TavilyProvider, "key", 5*time.Second)
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	ts, ok := s.(tavily.Search)
	if !ok {
		t.Fatalf("unexpected backend type %T", s)
	}
	if ts.Client == nil || ts.Client.Timeout != 5*time.Second {
		t.Fatalf("per-call timeout not applied: %+v", ts.Client)
	}
}

func TestNewWebSearcherDefaultTimeout(t *testing.T) {
	s, err := NewWebSearcher(TavilyProvider, "key", 0)
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	ts := s.(tavily.Search)
	if ts.Client == nil || ts.Client.Timeout != 20*time.Second {
		t.Fatalf("zero timeout should fall back to 20s, got %+v", ts.Client)
	}
}

func TestNewWebSearcherUnsupported(t *testing.T) {
	if _, err := NewWebSearcher(Provider("duckduckgo"), "key", time.Second); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
