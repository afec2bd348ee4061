package ports

import "time"

// Metrics receives engine-level observations.
type Metrics interface {
	SubmissionOutcome(kind string)
	LedgerRetry()
	AggregationDuration(d time.Duration)
	ExportRendered(format string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) SubmissionOutcome(string) {}
func (NopMetrics) LedgerRetry() {}
func (NopMetrics) AggregationDuration(time.Duration) {}
func (NopMetrics) ExportRendered(string) {}
