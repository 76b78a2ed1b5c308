package telemetry

import (
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry provides monitoring and cost tracking for research runs
type Telemetry struct {
	config      config.TelemetryConfig
	logger      *log.Logger
	costTracker *CostTracker

	runsTotal   *prometheus.CounterVec
	roundsTotal prometheus.Counter
	searchCalls *prometheus.CounterVec
	llmCalls    *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// CostTracker tracks costs across LLM models and operations
type CostTracker struct {
	mu sync.RWMutex

	OperationCosts map[string]float64 // operation -> cost
	ModelCosts     map[string]float64 // model -> cost

	TotalCost   float64
	TotalTokens int64
}

// RunEvent represents one completed (or failed) research run
type RunEvent struct {
	ID             string
	SubjectEmail   string
	StartTime      time.Time
	EndTime        time.Time
	ProcessingTime time.Duration
	Rounds         int
	Success        bool
	Error          string
	Satisfactory   bool
}

// SearchEvent represents one search-service call
type SearchEvent struct {
	Query    string
	Provider string
	Duration time.Duration
	Success  bool
	Results  int
}

// LLMEvent represents one completion-service call
type LLMEvent struct {
	Operation    string // queries, notes, reflection
	Model        string
	Duration     time.Duration
	Success      bool
	InputTokens  int64
	OutputTokens int64
	Cost         float64
}

// NewTelemetry creates a new telemetry instance and registers its collectors.
func NewTelemetry(cfg config.TelemetryConfig, reg prometheus.Registerer) *Telemetry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	w := io.Writer(log.Writer())
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			w = f
		} else {
			log.Printf("telemetry log file %s: %v, using process log", cfg.LogFile, err)
		}
	}
	t := &Telemetry{
		config: cfg,
		logger: log.New(w, "[TELEMETRY] ", log.LstdFlags),
		costTracker: &CostTracker{
			OperationCosts: make(map[string]float64),
			ModelCosts:     make(map[string]float64),
		},
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospector_runs_total",
			Help: "Research runs by outcome.",
		}, []string{"outcome"}),
		roundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prospector_research_rounds_total",
			Help: "Completed research/reflection rounds.",
		}),
		searchCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospector_search_calls_total",
			Help: "Search service calls by outcome.",
		}, []string{"outcome"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prospector_llm_calls_total",
			Help: "Completion service calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prospector_run_duration_seconds",
			Help:    "End-to-end research run duration.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	reg.MustRegister(t.runsTotal, t.roundsTotal, t.searchCalls, t.llmCalls, t.runDuration)
	return t
}

// RecordRunEvent records a completed research run
func (t *Telemetry) RecordRunEvent(event RunEvent) {
	outcome := "success"
	if !event.Success {
		outcome = "failure"
	}
	t.runsTotal.WithLabelValues(outcome).Inc()
	t.runDuration.Observe(event.ProcessingTime.Seconds())
	for i := 0; i < event.Rounds; i++ {
		t.roundsTotal.Inc()
	}

	if t.config.Enabled {
		t.logger.Printf("run %s: rounds=%d satisfactory=%t duration=%v err=%q",
			event.ID, event.Rounds, event.Satisfactory, event.ProcessingTime, event.Error)
	}
}

// RecordSearchEvent records a search-service call
func (t *Telemetry) RecordSearchEvent(event SearchEvent) {
	outcome := "success"
	if !event.Success {
		outcome = "failure"
	}
	t.searchCalls.WithLabelValues(outcome).Inc()
}

// RecordLLMEvent records a completion-service call and its cost
func (t *Telemetry) RecordLLMEvent(event LLMEvent) {
	outcome := "success"
	if !event.Success {
		outcome = "failure"
	}
	t.llmCalls.WithLabelValues(event.Operation, outcome).Inc()

	if !t.config.CostTracking {
		return
	}
	t.costTracker.mu.Lock()
	defer t.costTracker.mu.Unlock()
	t.costTracker.OperationCosts[event.Operation] += event.Cost
	t.costTracker.ModelCosts[event.Model] += event.Cost
	t.costTracker.TotalCost += event.Cost
	t.costTracker.TotalTokens += event.InputTokens + event.OutputTokens
}

// TotalCost returns the accumulated LLM spend.
func (t *Telemetry) TotalCost() float64 {
	t.costTracker.mu.RLock()
	defer t.costTracker.mu.RUnlock()
	return t.costTracker.TotalCost
}

// TotalTokens returns the accumulated token usage.
func (t *Telemetry) TotalTokens() int64 {
	t.costTracker.mu.RLock()
	defer t.costTracker.mu.RUnlock()
	return t.costTracker.TotalTokens
}
