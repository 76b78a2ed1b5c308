package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/telemetry"
)

// QueryPlanner turns the subject identity and target schema into a small set
// of search queries. Only round 0 uses it; later rounds reuse the Reflector's
// follow-up queries.
type QueryPlanner struct {
	config    *config.Config
	llm       LLMProvider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewQueryPlanner creates a new query planner instance
func NewQueryPlanner(cfg *config.Config, llm LLMProvider, tele *telemetry.Telemetry) *QueryPlanner {
	return &QueryPlanner{
		config:    cfg,
		llm:       llm,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// PlanQueries generates up to research.max_search_queries deduplicated,
// non-empty search queries for the subject.
func (p *QueryPlanner) PlanQueries(ctx context.Context, subject Subject, schema TargetSchema, userNotes string) ([]string, error) {
	startTime := time.Now()
	maxQueries := p.config.Research.MaxSearchQueries
	model := p.config.LLM.Routing.ModelFor("queries")

	prompt := queryWriterPrompt(subject, schema, userNotes, maxQueries)

	var out struct {
		Queries []string `json:"queries"`
	}
	inTok, outTok, err := p.llm.GenerateObject(ctx,
		"You generate web search queries. Respond with JSON only.",
		prompt, model, &out)
	if p.telemetry != nil {
		p.telemetry.RecordLLMEvent(telemetry.LLMEvent{
			Operation: "queries", Model: model, Duration: time.Since(startTime), Success: err == nil,
			InputTokens: inTok, OutputTokens: outTok, Cost: p.llm.CalculateCost(inTok, outTok, model),
		})
	}
	if err != nil {
		return nil, &CompletionSchemaError{Operation: "queries", Err: err}
	}

	queries := dedupQueries(out.Queries, maxQueries)
	if len(queries) == 0 {
		return nil, &CompletionSchemaError{Operation: "queries", Err: fmt.Errorf("planner returned no usable queries")}
	}
	p.logger.Printf("planned %d queries in %v", len(queries), time.Since(startTime))
	return queries, nil
}

// dedupQueries drops empties and duplicates, preserving order, capped at max.
func dedupQueries(raw []string, max int) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
