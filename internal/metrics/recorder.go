// Package metrics defines the observability hooks for build instrumentation.
package metrics

import "time"

// BuildOutcomeLabel enumerates terminal build states for counters.
type BuildOutcomeLabel string

const (
	OutcomeSuccess BuildOutcomeLabel = "success"
	OutcomeWarning BuildOutcomeLabel = "warning"
	OutcomeFailed  BuildOutcomeLabel = "failed"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations may forward to Prometheus or stay in-process. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	ObserveStageDuration(stage string, d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	AddPagesRendered(n int)
	AddPagesInvalidated(n int)
	SetPagesTotal(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) AddPagesRendered(int)                       {}
func (NoopRecorder) AddPagesInvalidated(int)                    {}
func (NoopRecorder) SetPagesTotal(int)                          {}
