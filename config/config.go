package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research system
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Research  ResearchConfig  `mapstructure:"research"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
	// RequestsPerSecond caps calls across the whole process; 0 disables the
	// limiter.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai, anthropic
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string  `mapstructure:"name"`
	APIName         string  `mapstructure:"api_name"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	CostPer1K       float64 `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64 `mapstructure:"cost_per_1k_output"`
}

// LLMRoutingConfig defines which model to use for different tasks
type LLMRoutingConfig struct {
	Queries    string `mapstructure:"queries"`    // query generation
	Notes      string `mapstructure:"notes"`      // evidence summarization
	Reflection string `mapstructure:"reflection"` // extraction + completeness judgment
	Fallback   string `mapstructure:"fallback"`   // fallback model
}

// ModelFor resolves the routed model for a task, falling back when unset.
func (r LLMRoutingConfig) ModelFor(task string) string {
	var m string
	switch task {
	case "queries":
		m = r.Queries
	case "notes":
		m = r.Notes
	case "reflection":
		m = r.Reflection
	}
	if m == "" {
		m = r.Fallback
	}
	return m
}

// SearchConfig contains web search settings
type SearchConfig struct {
	Provider     string        `mapstructure:"provider"` // tavily, serper, brave
	TavilyAPIKey string        `mapstructure:"tavily_api_key"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ResearchConfig contains the research loop settings
type ResearchConfig struct {
	MaxSearchQueries     int           `mapstructure:"max_search_queries"`
	MaxSearchResults     int           `mapstructure:"max_search_results"`
	MaxReflectionSteps   int           `mapstructure:"max_reflection_steps"`
	IncludeSearchResults bool          `mapstructure:"include_search_results"`
	FetchFullText        bool          `mapstructure:"fetch_full_text"`
	MaxCharsPerSource    int           `mapstructure:"max_chars_per_source"`
	StageTimeout         time.Duration `mapstructure:"stage_timeout"`
}

// Normalize applies defaults for unset research values.
func (r ResearchConfig) Normalize() ResearchConfig {
	if r.MaxSearchQueries == 0 {
		r.MaxSearchQueries = 3
	}
	if r.MaxSearchResults == 0 {
		r.MaxSearchResults = 3
	}
	if r.MaxCharsPerSource == 0 {
		r.MaxCharsPerSource = 4000
	}
	return r
}

// Validate checks the research loop settings. Runs fail fast on these before
// any external calls are made.
func (r ResearchConfig) Validate() error {
	if r.MaxSearchQueries <= 0 {
		return fmt.Errorf("research.max_search_queries must be > 0")
	}
	if r.MaxSearchResults <= 0 {
		return fmt.Errorf("research.max_search_results must be > 0")
	}
	if r.MaxReflectionSteps < 0 {
		return fmt.Errorf("research.max_reflection_steps cannot be negative")
	}
	if r.MaxCharsPerSource <= 0 {
		return fmt.Errorf("research.max_chars_per_source must be > 0")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings. LogFile, when
// set, receives the per-run telemetry log lines instead of the process log.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	LogFile      string `mapstructure:"log_file"`
	CostTracking bool   `mapstructure:"cost_tracking"`
}

// StorageConfig contains storage settings for the run archive
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required when host is set")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("llm.requests_per_second", 4.0)
	v.SetDefault("llm.burst", 10)
	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.timeout", 20*time.Second)
	v.SetDefault("research.max_search_queries", 3)
	v.SetDefault("research.max_search_results", 3)
	v.SetDefault("research.max_reflection_steps", 0)
	v.SetDefault("research.include_search_results", false)
	v.SetDefault("research.max_chars_per_source", 4000)
	v.SetDefault("research.stage_timeout", 2*time.Minute)
	v.SetDefault("storage.redis.ttl", 24*time.Hour)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("PROSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// config file is optional; env + defaults carry a minimal setup
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	config.Research = config.Research.Normalize()

	if err := config.Research.Validate(); err != nil {
		return nil, err
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
