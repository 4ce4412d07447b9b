// Package task contains the periodic batch jobs that sweep all
// learners outside the request path.
package task

import (
	"context"
	"time"
)

// Report summarizes one run of a batch job. Per-learner failures are
// counted, never fatal; Partial marks runs cut short by the duration
// budget.
type Report struct {
	Job       string        `json:"job"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
	Partial   bool          `json:"partial"`
}

// Job is one schedulable batch entry point.
type Job interface {
	// Name identifies the job in logs and schedules.
	Name() string

	// Run executes one sweep. Only a whole-sweep failure (the
	// candidate query itself failing) returns an error; individual
	// learner failures are counted in the report.
	Run(ctx context.Context) (*Report, error)
}
