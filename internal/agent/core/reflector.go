package core

import (
	"context"
	"log"
	"time"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/telemetry"
)

// Reflector extracts the structured profile from all accumulated notes and
// judges completeness, in a single completion call. Extraction and judgment
// are coupled on purpose: splitting them doubles the latency for no gain.
type Reflector struct {
	config    *config.Config
	llm       LLMProvider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewReflector creates a new reflector instance
func NewReflector(cfg *config.Config, llm LLMProvider, tele *telemetry.Telemetry) *Reflector {
	return &Reflector{
		config:    cfg,
		llm:       llm,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[REFLECTOR] ", log.LstdFlags),
	}
}

type reflectionOutput struct {
	Profile         map[string]interface{} `json:"profile"`
	IsSatisfactory  bool                   `json:"is_satisfactory"`
	MissingFields   []string               `json:"missing_fields"`
	FollowUpQueries []string               `json:"follow_up_queries"`
	Reasoning       string                 `json:"reasoning"`
}

// Reflect analyzes all notes so far and returns the round's StructuredProfile
// and ReflectionVerdict. The satisfactory flag is authoritative: on a
// satisfactory verdict the missing-fields and follow-up lists are cleared so
// the stored verdict is internally consistent.
func (r *Reflector) Reflect(ctx context.Context, subject Subject, schema TargetSchema, notes []ResearchNote) (StructuredProfile, ReflectionVerdict, error) {
	startTime := time.Now()
	model := r.config.LLM.Routing.ModelFor("reflection")

	prompt := reflectionPrompt(subject, schema, formatNotes(notes), r.config.Research.MaxSearchQueries)

	var out reflectionOutput
	inTok, outTok, err := r.llm.GenerateObject(ctx,
		"You are a research analyst evaluating the completeness of research notes and extracting structured information. Respond with JSON only.",
		prompt, model, &out)
	if r.telemetry != nil {
		r.telemetry.RecordLLMEvent(telemetry.LLMEvent{
			Operation: "reflection", Model: model, Duration: time.Since(startTime), Success: err == nil,
			InputTokens: inTok, OutputTokens: outTok, Cost: r.llm.CalculateCost(inTok, outTok, model),
		})
	}
	if err != nil {
		return StructuredProfile{}, ReflectionVerdict{}, &CompletionSchemaError{Operation: "reflection", Err: err}
	}

	profile := StructuredProfile{Fields: make(map[string]interface{}, len(schema))}
	for field := range schema {
		profile.Fields[field] = out.Profile[field]
	}
	profile.Notes = out.Reasoning

	verdict := ReflectionVerdict{
		IsSatisfactory:  out.IsSatisfactory,
		MissingFields:   out.MissingFields,
		FollowUpQueries: dedupQueries(out.FollowUpQueries, r.config.Research.MaxSearchQueries),
		Reasoning:       out.Reasoning,
	}
	if verdict.IsSatisfactory {
		verdict.MissingFields = nil
		verdict.FollowUpQueries = nil
	}

	r.logger.Printf("reflection over %d notes: satisfactory=%t missing=%d", len(notes), verdict.IsSatisfactory, len(verdict.MissingFields))
	return profile, verdict, nil
}
