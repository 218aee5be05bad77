package models

import (
	"errors"
	"fmt"
)

var errUnresolved = errors.New("attachment lookup failed during collection")

// CollectionError reports a failed control-plane lookup for one resource or
// one API. It never aborts a scan on its own; callers degrade the affected
// data to empty/unknown.
type CollectionError struct {
	Op       string
	Resource string
	Err      error
}

func (e *CollectionError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("collect %s (%s): %v", e.Op, e.Resource, e.Err)
	}
	return fmt.Sprintf("collect %s: %v", e.Op, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// ConfigurationError reports invalid user input. It is fatal before a scan starts.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// EvaluationError reports a defect inside a single check. The check's
// findings are dropped; other checks are unaffected.
type EvaluationError struct {
	RuleID string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s: %v", e.RuleID, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// OutputError reports a report writer that failed for one format.
type OutputError struct {
	Format string
	Err    error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("write %s report: %v", e.Format, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
