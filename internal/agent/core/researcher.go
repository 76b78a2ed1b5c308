package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/telemetry"
	"github.com/mohammad-safakhou/prospector/tools/web_fetch"
	searchmodels "github.com/mohammad-safakhou/prospector/tools/web_search/models"
	"github.com/mohammad-safakhou/prospector/utils"
	"golang.org/x/sync/errgroup"
)

// Researcher executes one round of evidence gathering: concurrent searches,
// normalization, optional full-text enrichment, and one completion call that
// distills the evidence into a ResearchNote.
type Researcher struct {
	config    *config.Config
	llm       LLMProvider
	searcher  WebSearcher
	fetcher   *web_fetch.Fetcher
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewResearcher creates a new researcher instance. fetcher may be nil when
// full-text enrichment is disabled.
func NewResearcher(cfg *config.Config, llm LLMProvider, searcher WebSearcher, fetcher *web_fetch.Fetcher, tele *telemetry.Telemetry) *Researcher {
	return &Researcher{
		config:    cfg,
		llm:       llm,
		searcher:  searcher,
		fetcher:   fetcher,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[RESEARCHER] ", log.LstdFlags),
	}
}

// Research runs every query concurrently and joins on the whole set: one
// failed query aborts the round with a SearchFailureError and no note is
// produced. On success it returns exactly one new ResearchNote plus the
// deduplicated evidence that backed it.
func (r *Researcher) Research(ctx context.Context, subject Subject, schema TargetSchema, queries []string, userNotes string, round int) (ResearchNote, []EvidenceDocument, error) {
	startTime := time.Now()
	k := r.config.Research.MaxSearchResults

	batches := make([][]searchmodels.Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			callStart := time.Now()
			results, err := r.searcher.Search(gctx, query, k, true)
			if r.telemetry != nil {
				r.telemetry.RecordSearchEvent(telemetry.SearchEvent{
					Query:    query,
					Provider: r.config.Search.Provider,
					Duration: time.Since(callStart),
					Success:  err == nil,
					Results:  len(results),
				})
			}
			if err != nil {
				return &SearchFailureError{Query: query, Err: err}
			}
			batches[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ResearchNote{}, nil, err
	}

	raw := make([]interface{}, len(batches))
	for i, b := range batches {
		raw[i] = b
	}
	docs, err := NormalizeEvidence(raw...)
	if err != nil {
		return ResearchNote{}, nil, err
	}

	if r.config.Research.FetchFullText && r.fetcher != nil {
		r.enrich(ctx, docs)
	}

	evidence := FormatEvidence(docs, r.config.Research.MaxCharsPerSource, true)
	prompt := noteTakerPrompt(subject, schema, evidence, utils.Truncate(userNotes, 2000))

	model := r.config.LLM.Routing.ModelFor("notes")
	llmStart := time.Now()
	content, inTok, outTok, err := r.llm.GenerateWithTokens(ctx, prompt, model, nil)
	if r.telemetry != nil {
		r.telemetry.RecordLLMEvent(telemetry.LLMEvent{
			Operation: "notes", Model: model, Duration: time.Since(llmStart), Success: err == nil,
			InputTokens: inTok, OutputTokens: outTok, Cost: r.llm.CalculateCost(inTok, outTok, model),
		})
	}
	if err != nil {
		return ResearchNote{}, nil, fmt.Errorf("note generation: %w", err)
	}

	r.logger.Printf("round %d: %d queries, %d documents, note in %v", round, len(queries), len(docs), time.Since(startTime))
	return ResearchNote{
		Round:     round,
		Content:   content,
		Queries:   queries,
		CreatedAt: time.Now(),
	}, docs, nil
}

// enrich fills in missing raw content via the page fetcher. Best-effort: a
// failed fetch leaves the snippet as the document's only content.
func (r *Researcher) enrich(ctx context.Context, docs []EvidenceDocument) {
	var wg sync.WaitGroup
	for i := range docs {
		if docs[i].RawContent != "" {
			continue
		}
		wg.Add(1)
		go func(doc *EvidenceDocument) {
			defer wg.Done()
			text, err := r.fetcher.Fetch(ctx, doc.URL)
			if err != nil {
				return
			}
			doc.RawContent = text
		}(&docs[i])
	}
	wg.Wait()
}
