// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(status string) // status: "success" or "failed"
	IncAuthRejected()

	// Record metrics, labelled by kind: "expense", "income", "investment"
	IncRecordCreated(kind string)
	IncRecordDeleted(kind string)

	// Summary metrics
	ObserveSummaryDuration(duration time.Duration)

	// Rate limiting
	IncRateLimited(scope string) // scope: "ip" or "user"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
