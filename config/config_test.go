package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Research.MaxSearchQueries != 3 || cfg.Research.MaxSearchResults != 3 {
		t.Fatalf("research defaults wrong: %+v", cfg.Research)
	}
	if cfg.Research.MaxReflectionSteps != 0 {
		t.Fatalf("max_reflection_steps should default to 0, got %d", cfg.Research.MaxReflectionSteps)
	}
	if cfg.Research.IncludeSearchResults {
		t.Fatalf("include_search_results should default to false")
	}
	if cfg.Search.Provider != "tavily" {
		t.Fatalf("search provider should default to tavily, got %q", cfg.Search.Provider)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("server address default wrong: %q", cfg.Server.Address)
	}
	if cfg.Storage.Redis.TTL != 24*time.Hour {
		t.Fatalf("redis ttl default wrong: %v", cfg.Storage.Redis.TTL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{
		"research": {"max_search_queries": 5, "max_reflection_steps": 2, "include_search_results": true},
		"search": {"provider": "serper", "serper_api_key": "k"}
	}`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Research.MaxSearchQueries != 5 || cfg.Research.MaxReflectionSteps != 2 {
		t.Fatalf("overrides not applied: %+v", cfg.Research)
	}
	if !cfg.Research.IncludeSearchResults {
		t.Fatalf("include_search_results override not applied")
	}
	if cfg.Search.Provider != "serper" || cfg.Search.SerperAPIKey != "k" {
		t.Fatalf("search overrides not applied: %+v", cfg.Search)
	}
}

func TestLoadConfigRejectsInvalidResearch(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, `{"research": {"max_search_queries": -1}}`)); err == nil {
		t.Fatal("expected error for negative max_search_queries")
	}
	if _, err := LoadConfig(writeConfig(t, `{"research": {"max_reflection_steps": -2}}`)); err == nil {
		t.Fatal("expected error for negative max_reflection_steps")
	}
}

func TestLoadConfigRejectsPartialRedis(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, `{"storage": {"redis": {"host": "localhost", "port": ""}}}`)); err == nil {
		t.Fatal("expected error for redis host without port")
	}
}

func TestResearchNormalize(t *testing.T) {
	r := ResearchConfig{}.Normalize()
	if r.MaxSearchQueries != 3 || r.MaxSearchResults != 3 || r.MaxCharsPerSource != 4000 {
		t.Fatalf("normalize defaults wrong: %+v", r)
	}
	r = ResearchConfig{MaxSearchQueries: 7}.Normalize()
	if r.MaxSearchQueries != 7 {
		t.Fatalf("normalize must not clobber set values")
	}
}

func TestRedisEnabled(t *testing.T) {
	if (RedisConfig{}).Enabled() {
		t.Fatal("empty redis config should be disabled")
	}
	if !(RedisConfig{Host: "localhost", Port: "6379"}).Enabled() {
		t.Fatal("configured redis should be enabled")
	}
}
