package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/tools/web_fetch"
	"github.com/mohammad-safakhou/prospector/tools/web_search"
	"golang.org/x/time/rate"
)

// NewLLMProvider creates a new LLM provider based on configuration. The
// returned provider is process-wide and safe for concurrent runs; when a rate
// limit is configured it is enforced across all calls.
func NewLLMProvider(cfg config.LLMConfig) (LLMProvider, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}

	var provider LLMProvider
	for _, p := range cfg.Providers {
		switch p.Type {
		case "openai":
			provider = NewOpenAIProvider(p)
		case "anthropic":
			provider = NewAnthropicProvider(p)
		default:
			return nil, fmt.Errorf("unsupported LLM provider type: %s", p.Type)
		}
		break
	}
	if provider == nil {
		return nil, fmt.Errorf("no valid LLM providers found")
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		provider = &rateLimitedProvider{
			inner:   provider,
			limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		}
	}
	return provider, nil
}

// NewSearcher creates the configured web search provider.
func NewSearcher(cfg config.SearchConfig) (WebSearcher, error) {
	var key string
	switch web_search.Provider(cfg.Provider) {
	case web_search.TavilyProvider:
		key = cfg.TavilyAPIKey
		if key == "" {
			key = os.Getenv("TAVILY_API_KEY")
		}
	case web_search.SerperProvider:
		key = cfg.SerperAPIKey
	case web_search.BraveProvider:
		key = cfg.BraveAPIKey
	}
	if key == "" {
		return nil, fmt.Errorf("no API key configured for search provider %q", cfg.Provider)
	}
	return web_search.NewWebSearcher(web_search.Provider(cfg.Provider), key, cfg.Timeout)
}

// NewFullTextFetcher creates the optional readability-based page fetcher.
func NewFullTextFetcher(cfg config.ResearchConfig) *web_fetch.Fetcher {
	return web_fetch.NewFetcher(0, cfg.MaxCharsPerSource)
}

// rateLimitedProvider enforces a process-wide request budget in front of the
// underlying provider.
type rateLimitedProvider struct {
	inner   LLMProvider
	limiter *rate.Limiter
}

func (p *rateLimitedProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.inner.Generate(ctx, prompt, model, options)
}

func (p *rateLimitedProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", 0, 0, err
	}
	return p.inner.GenerateWithTokens(ctx, prompt, model, options)
}

func (p *rateLimitedProvider) GenerateObject(ctx context.Context, system, prompt string, model string, out interface{}) (int64, int64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}
	return p.inner.GenerateObject(ctx, system, prompt, model, out)
}

func (p *rateLimitedProvider) GetAvailableModels() []string { return p.inner.GetAvailableModels() }

func (p *rateLimitedProvider) CalculateCost(in, out int64, model string) float64 {
	return p.inner.CalculateCost(in, out, model)
}

// OpenAIProvider implements LLMProvider for OpenAI
type OpenAIProvider struct {
	config config.LLMProvider
	models map[string]config.LLMModel
	http   *HTTPClient
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(cfg config.LLMProvider) *OpenAIProvider {
	return &OpenAIProvider{
		config: cfg,
		models: cfg.Models,
		http:   NewHTTPClient(cfg.Timeout, cfg.MaxRetries, 0),
	}
}

func (p *OpenAIProvider) apiKey() (string, error) {
	key := p.config.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}
	return key, nil
}

func (p *OpenAIProvider) resolveModel(model string) (api string, temperature float64, maxTokens int) {
	api, temperature, maxTokens = model, 0, 0
	if m, ok := p.models[model]; ok {
		if m.APIName != "" {
			api = m.APIName
		} else if m.Name != "" {
			api = m.Name
		}
		temperature = m.Temperature
		maxTokens = m.MaxTokens
	}
	return
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (p *OpenAIProvider) chat(ctx context.Context, messages []chatMessage, model string, jsonMode bool) (string, int64, int64, error) {
	key, err := p.apiKey()
	if err != nil {
		return "", 0, 0, err
	}
	api, temperature, maxTokens := p.resolveModel(model)

	body := map[string]interface{}{
		"model":    api,
		"messages": messages,
	}
	if temperature > 0 {
		body["temperature"] = temperature
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}
	if jsonMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	baseURL := p.config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	headers := map[string]string{"Authorization": "Bearer " + key}
	if err := p.http.DoJSON(ctx, "POST", baseURL+"/chat/completions", headers, body, &out); err != nil {
		return "", 0, 0, fmt.Errorf("openai: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", 0, 0, fmt.Errorf("openai: no choices")
	}
	return out.Choices[0].Message.Content, int64(out.Usage.PromptTokens), int64(out.Usage.CompletionTokens), nil
}

// Generate generates text using OpenAI
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	content, _, _, err := p.chat(ctx, []chatMessage{{Role: "user", Content: prompt}}, model, false)
	return content, err
}

// GenerateWithTokens generates text and returns token usage
func (p *OpenAIProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	return p.chat(ctx, []chatMessage{{Role: "user", Content: prompt}}, model, false)
}

// GenerateObject asks for a JSON object response and decodes it into out.
func (p *OpenAIProvider) GenerateObject(ctx context.Context, system, prompt string, model string, out interface{}) (int64, int64, error) {
	messages := []chatMessage{}
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	content, inTok, outTok, err := p.chat(ctx, messages, model, true)
	if err != nil {
		return inTok, outTok, err
	}
	return inTok, outTok, decodeObject(content, out)
}

// GetAvailableModels returns available models
func (p *OpenAIProvider) GetAvailableModels() []string {
	var models []string
	for name := range p.models {
		models = append(models, name)
	}
	return models
}

// CalculateCost calculates the cost for a given number of tokens
func (p *OpenAIProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	m, ok := p.models[model]
	if !ok {
		return 0.0
	}
	return float64(inputTokens)/1000.0*m.CostPer1K + float64(outputTokens)/1000.0*m.CostPer1KOutput
}

// AnthropicProvider implements LLMProvider for Anthropic
type AnthropicProvider struct {
	config config.LLMProvider
	models map[string]config.LLMModel
	http   *HTTPClient
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(cfg config.LLMProvider) *AnthropicProvider {
	return &AnthropicProvider{
		config: cfg,
		models: cfg.Models,
		http:   NewHTTPClient(cfg.Timeout, cfg.MaxRetries, 0),
	}
}

func (p *AnthropicProvider) message(ctx context.Context, system, prompt, model string) (string, int64, int64, error) {
	key := p.config.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return "", 0, 0, fmt.Errorf("Anthropic API key not configured")
	}

	api := model
	maxTokens := 4096
	if m, ok := p.models[model]; ok {
		if m.APIName != "" {
			api = m.APIName
		} else if m.Name != "" {
			api = m.Name
		}
		if m.MaxTokens > 0 {
			maxTokens = m.MaxTokens
		}
	}

	baseURL := p.config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}

	body := map[string]interface{}{
		"model":      api,
		"max_tokens": maxTokens,
		"messages":   []chatMessage{{Role: "user", Content: prompt}},
	}
	if system != "" {
		body["system"] = system
	}

	var out struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int64 `json:"input_tokens"`
			OutputTokens int64 `json:"output_tokens"`
		} `json:"usage"`
	}
	headers := map[string]string{
		"x-api-key":         key,
		"anthropic-version": "2023-06-01",
	}
	if err := p.http.DoJSON(ctx, "POST", baseURL+"/messages", headers, body, &out); err != nil {
		return "", 0, 0, fmt.Errorf("anthropic: %w", err)
	}
	if len(out.Content) == 0 {
		return "", 0, 0, fmt.Errorf("anthropic: empty content")
	}
	return out.Content[0].Text, out.Usage.InputTokens, out.Usage.OutputTokens, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	content, _, _, err := p.message(ctx, "", prompt, model)
	return content, err
}

// GenerateWithTokens generates text and returns token usage
func (p *AnthropicProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	return p.message(ctx, "", prompt, model)
}

func (p *AnthropicProvider) GenerateObject(ctx context.Context, system, prompt string, model string, out interface{}) (int64, int64, error) {
	content, inTok, outTok, err := p.message(ctx, system, prompt, model)
	if err != nil {
		return inTok, outTok, err
	}
	return inTok, outTok, decodeObject(content, out)
}

func (p *AnthropicProvider) GetAvailableModels() []string {
	var models []string
	for name := range p.models {
		models = append(models, name)
	}
	return models
}

func (p *AnthropicProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	m, ok := p.models[model]
	if !ok {
		return 0.0
	}
	return float64(inputTokens)/1000.0*m.CostPer1K + float64(outputTokens)/1000.0*m.CostPer1KOutput
}

// decodeObject extracts the first JSON object from a model response and
// decodes it into out. Models occasionally wrap JSON in prose or fences even
// in JSON mode.
func decodeObject(content string, out interface{}) error {
	jsonStr := extractJSON(content)
	if jsonStr == "" {
		return fmt.Errorf("no JSON found in response")
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
