package core

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/telemetry"
	"github.com/mohammad-safakhou/prospector/tools/web_fetch"
)

// runPhase is the loop controller's state.
type runPhase string

const (
	phasePlanning    runPhase = "planning"
	phaseResearching runPhase = "researching"
	phaseReflecting  runPhase = "reflecting"
	phaseDone        runPhase = "done"
)

// Controller owns the research state machine:
// PLANNING -> RESEARCHING -> REFLECTING -> (RESEARCHING | DONE).
// Each Run gets its own RunState; a single Controller serves concurrent runs
// without locking because no state crosses runs.
type Controller struct {
	config     *config.Config
	planner    *QueryPlanner
	researcher *Researcher
	reflector  *Reflector
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
}

// NewController wires the pipeline components around injected service
// capabilities so tests can substitute doubles.
func NewController(cfg *config.Config, llm LLMProvider, searcher WebSearcher, fetcher *web_fetch.Fetcher, tele *telemetry.Telemetry) *Controller {
	return &Controller{
		config:     cfg,
		planner:    NewQueryPlanner(cfg, llm, tele),
		researcher: NewResearcher(cfg, llm, searcher, fetcher, tele),
		reflector:  NewReflector(cfg, llm, tele),
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[CONTROLLER] ", log.LstdFlags),
	}
}

// RunRequest is the input of the run entrypoint.
type RunRequest struct {
	Subject   Subject      `json:"subject"`
	Schema    TargetSchema `json:"schema,omitempty"`
	UserNotes string       `json:"user_notes,omitempty"`
}

func (c *Controller) validate(req RunRequest) error {
	if strings.TrimSpace(req.Subject.Email) == "" {
		return &ConfigurationError{Field: "subject.email", Detail: "required"}
	}
	r := c.config.Research
	if r.MaxSearchQueries <= 0 {
		return &ConfigurationError{Field: "research.max_search_queries", Detail: "must be > 0"}
	}
	if r.MaxSearchResults <= 0 {
		return &ConfigurationError{Field: "research.max_search_results", Detail: "must be > 0"}
	}
	if r.MaxReflectionSteps < 0 {
		return &ConfigurationError{Field: "research.max_reflection_steps", Detail: "cannot be negative"}
	}
	if r.MaxCharsPerSource <= 0 {
		return &ConfigurationError{Field: "research.max_chars_per_source", Detail: "must be > 0"}
	}
	return nil
}

// Run executes one research workflow to completion. It returns the final
// StructuredProfile and ReflectionVerdict even when the verdict is
// unsatisfactory (best-effort answer once the retry budget is spent); it
// returns an error only for the failures of the §7 taxonomy, tagged with the
// stage they occurred at.
func (c *Controller) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	startTime := time.Now()
	runID := uuid.New().String()

	if err := c.validate(req); err != nil {
		return RunResult{}, err
	}

	schema := req.Schema
	if len(schema) == 0 {
		schema = DefaultTargetSchema()
	}

	state := &RunState{
		Subject:   req.Subject,
		Schema:    schema,
		UserNotes: req.UserNotes,
	}

	c.logger.Printf("run %s: starting research for %s", runID, req.Subject.Email)

	runErr := c.loop(ctx, state)

	event := telemetry.RunEvent{
		ID:             runID,
		SubjectEmail:   req.Subject.Email,
		StartTime:      startTime,
		EndTime:        time.Now(),
		ProcessingTime: time.Since(startTime),
		Rounds:         state.Round,
		Success:        runErr == nil,
		Satisfactory:   state.Verdict.IsSatisfactory,
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if c.telemetry != nil {
		c.telemetry.RecordRunEvent(event)
	}

	if runErr != nil {
		return RunResult{}, runErr
	}

	result := RunResult{
		ID:             runID,
		Subject:        req.Subject,
		Profile:        state.Profile,
		Verdict:        state.Verdict,
		Notes:          state.Notes,
		Rounds:         state.Round,
		ProcessingTime: time.Since(startTime),
		CreatedAt:      time.Now(),
	}
	if c.config.Research.IncludeSearchResults {
		result.Evidence = state.Evidence
	}
	return result, nil
}

// loop drives the state machine. Cancellation is checked at every transition;
// mid-search cancellation propagates through the researcher's errgroup.
func (c *Controller) loop(ctx context.Context, state *RunState) error {
	phase := phasePlanning
	for phase != phaseDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch phase {
		case phasePlanning:
			queries, err := c.planner.PlanQueries(ctx, state.Subject, state.Schema, state.UserNotes)
			if err != nil {
				return &RunError{Stage: StagePlanning, Err: err}
			}
			state.Queries = queries
			phase = phaseResearching

		case phaseResearching:
			rctx := ctx
			var cancel context.CancelFunc
			if timeout := c.config.Research.StageTimeout; timeout > 0 {
				rctx, cancel = context.WithTimeout(ctx, timeout)
			}
			note, docs, err := c.researcher.Research(rctx, state.Subject, state.Schema, state.Queries, state.UserNotes, state.Round+1)
			if cancel != nil {
				cancel()
			}
			if err != nil {
				return &RunError{Stage: StageResearching, Err: err}
			}
			state.Notes = append(state.Notes, note)
			state.Evidence = append(state.Evidence, docs...)
			phase = phaseReflecting

		case phaseReflecting:
			profile, verdict, err := c.reflector.Reflect(ctx, state.Subject, state.Schema, state.Notes)
			if err != nil {
				return &RunError{Stage: StageReflecting, Err: err}
			}
			state.Profile = profile
			state.Verdict = verdict
			state.Round++

			switch {
			case verdict.IsSatisfactory:
				phase = phaseDone
			case state.Round <= c.config.Research.MaxReflectionSteps && len(verdict.FollowUpQueries) > 0:
				state.Queries = verdict.FollowUpQueries
				phase = phaseResearching
			default:
				// retry budget spent (or nothing left to ask): answer anyway
				phase = phaseDone
			}
		}
	}
	return nil
}
