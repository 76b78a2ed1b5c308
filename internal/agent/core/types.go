package core

import (
	"context"
	"strings"
	"time"

	searchmodels "github.com/mohammad-safakhou/prospector/tools/web_search/models"
)

// Subject identifies the person being researched. It is immutable once a run
// starts; Email is the unique contact identifier, everything else is optional.
type Subject struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Company  string `json:"company,omitempty"`
	Role     string `json:"role,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Describe renders the subject identity fields for prompt consumption.
func (s Subject) Describe() string {
	parts := []string{"Email: " + s.Email}
	if s.Name != "" {
		parts = append(parts, "Name: "+s.Name)
	}
	if s.LinkedIn != "" {
		parts = append(parts, "LinkedIn URL: "+s.LinkedIn)
	}
	if s.Role != "" {
		parts = append(parts, "Role: "+s.Role)
	}
	if s.Company != "" {
		parts = append(parts, "Company: "+s.Company)
	}
	return strings.Join(parts, ", ")
}

// TargetSchema maps field names to human-readable descriptions of what the run
// should try to fill in. Supplied once per run; immutable.
type TargetSchema map[string]string

// DefaultTargetSchema is used when the caller does not override the schema.
func DefaultTargetSchema() TargetSchema {
	return TargetSchema{
		"years_of_experience":  "Total years of professional experience",
		"current_company":      "Name of the current employer/company",
		"current_role":         "Current job title or position",
		"prior_companies":      "List of previous companies worked at with roles and duration if available",
		"education":            "Educational background including degrees and institutions",
		"skills":               "Key technical and professional skills",
		"notable_achievements": "Significant accomplishments, projects, or recognition",
	}
}

// EvidenceDocument is one deduplicated search-result record. URL is the dedup
// key; RawContent is optional and commonly absent.
type EvidenceDocument struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet,omitempty"`
	RawContent string `json:"raw_content,omitempty"`
	Query      string `json:"query,omitempty"`
}

// ResearchNote is a free-text distillation of one research round's evidence.
// Notes are append-only across rounds; they are the durable memory of the run.
type ResearchNote struct {
	Round     int       `json:"round"`
	Content   string    `json:"content"`
	Queries   []string  `json:"queries,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StructuredProfile is the extracted answer: one value per TargetSchema field
// (values may be null) plus free-form notes. The Reflector replaces it wholly
// each round.
type StructuredProfile struct {
	Fields map[string]interface{} `json:"fields"`
	Notes  string                 `json:"notes,omitempty"`
}

// ReflectionVerdict is the Reflector's judgment for one round. IsSatisfactory
// is authoritative: when true, MissingFields and FollowUpQueries are cleared.
type ReflectionVerdict struct {
	IsSatisfactory  bool     `json:"is_satisfactory"`
	MissingFields   []string `json:"missing_fields,omitempty"`
	FollowUpQueries []string `json:"follow_up_queries,omitempty"`
	Reasoning       string   `json:"reasoning,omitempty"`
}

// RunState is the aggregate state of one research run, owned exclusively by
// the controller for the run's duration. Never shared across runs.
type RunState struct {
	Subject   Subject
	Schema    TargetSchema
	UserNotes string

	Queries  []string
	Notes    []ResearchNote
	Evidence []EvidenceDocument

	Profile StructuredProfile
	Verdict ReflectionVerdict
	Round   int
}

// RunResult is what the run entrypoint returns to the caller.
type RunResult struct {
	ID             string             `json:"id"`
	Subject        Subject            `json:"subject"`
	Profile        StructuredProfile  `json:"profile"`
	Verdict        ReflectionVerdict  `json:"verdict"`
	Notes          []ResearchNote     `json:"notes"`
	Evidence       []EvidenceDocument `json:"evidence,omitempty"`
	Rounds         int                `json:"rounds"`
	ProcessingTime time.Duration      `json:"processing_time"`
	CreatedAt      time.Time          `json:"created_at"`
}

// LLMProvider is the completion capability the core depends on. Implementations
// live in factories.go; tests substitute doubles.
type LLMProvider interface {
	// Generate produces free text for a prompt.
	Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error)

	// GenerateWithTokens generates text and returns token usage
	GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error)

	// GenerateObject produces a JSON object response, decodes it into out, and
	// returns the call's token usage. The prompt describes the expected shape;
	// a response that cannot be decoded into out is surfaced as a schema
	// failure.
	GenerateObject(ctx context.Context, system, prompt string, model string, out interface{}) (int64, int64, error)

	// GetAvailableModels returns available models
	GetAvailableModels() []string

	// CalculateCost calculates the cost for a given number of tokens
	CalculateCost(inputTokens, outputTokens int64, model string) float64
}

// WebSearcher is the search capability the core depends on. The production
// implementations live under tools/web_search.
type WebSearcher interface {
	Search(ctx context.Context, q string, k int, includeRaw bool) ([]searchmodels.Result, error)
}
