// Package audit records categorization run metadata. The categorization
// result itself is never persisted; a run row carries only timings, status,
// the error message if any, and the raw provider text for debugging.
package audit

import (
	"context"
	"time"
)

// Run statuses.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusDegraded  = "DEGRADED" // extraction failed, fallback result served
	StatusFailed    = "FAILED"   // provider call failed
)

// Run is one categorization run.
type Run struct {
	RunID            string
	Mode             string
	Status           string
	ErrorMessage     string
	RawModelOutput   string
	TransactionCount int
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Recorder persists run records. Recording is best-effort: the pipeline logs
// and continues when a recorder fails.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
}

// Lister reads back recent runs for the operational endpoint.
type Lister interface {
	ListRecentRuns(ctx context.Context, limit int) ([]*Run, error)
}

// Noop discards all records. Used when no audit dataset is configured.
type Noop struct{}

func (Noop) RecordRun(ctx context.Context, run *Run) error { return nil }

var _ Recorder = Noop{}
