package core

import "fmt"

// Stage names the pipeline stage a failure occurred at.
type Stage string

const (
	StagePlanning    Stage = "planning"
	StageResearching Stage = "researching"
	StageReflecting  Stage = "reflecting"
)

// RunError tags an underlying failure with the stage it occurred at. All run
// failures surface to the caller wrapped in one of these.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run failed at %s stage: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// MalformedInputError indicates the evidence normalizer received a batch shape
// it cannot interpret. Not retried.
type MalformedInputError struct {
	Detail string
}

func (e *MalformedInputError) Error() string {
	return "malformed search result batch: " + e.Detail
}

// SearchFailureError indicates a search call in a concurrent batch failed. The
// whole research step aborts; there is no partial-results fallback.
type SearchFailureError struct {
	Query string
	Err   error
}

func (e *SearchFailureError) Error() string {
	return fmt.Sprintf("search failed for query %q: %v", e.Query, e.Err)
}

func (e *SearchFailureError) Unwrap() error { return e.Err }

// CompletionSchemaError indicates the completion service could not produce
// output conforming to the requested shape.
type CompletionSchemaError struct {
	Operation string
	Err       error
}

func (e *CompletionSchemaError) Error() string {
	return fmt.Sprintf("completion output did not conform to schema (%s): %v", e.Operation, e.Err)
}

func (e *CompletionSchemaError) Unwrap() error { return e.Err }

// ConfigurationError indicates an invalid configuration value detected at run
// start, before any external calls are made.
type ConfigurationError struct {
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Detail)
}
