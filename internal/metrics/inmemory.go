package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered        uint64
	LoginsSucceeded        uint64
	LoginsFailed           uint64
	AuthRejected           uint64
	RecordsCreated         map[string]uint64
	RecordsDeleted         map[string]uint64
	SummaryDurationCount   uint64
	SummaryDurationTotalNs int64
	RateLimited            map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics
// endpoint.
type InMemoryRecorder struct {
	usersRegistered        uint64
	loginsSucceeded        uint64
	loginsFailed           uint64
	authRejected           uint64
	summaryDurationCount   uint64
	summaryDurationTotalNs int64

	mu             sync.Mutex
	recordsCreated map[string]uint64
	recordsDeleted map[string]uint64
	rateLimited    map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		recordsCreated: make(map[string]uint64),
		recordsDeleted: make(map[string]uint64),
		rateLimited:    make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		UsersRegistered:        atomic.LoadUint64(&m.usersRegistered),
		LoginsSucceeded:        atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:           atomic.LoadUint64(&m.loginsFailed),
		AuthRejected:           atomic.LoadUint64(&m.authRejected),
		RecordsCreated:         copyCounts(m.recordsCreated),
		RecordsDeleted:         copyCounts(m.recordsDeleted),
		SummaryDurationCount:   atomic.LoadUint64(&m.summaryDurationCount),
		SummaryDurationTotalNs: atomic.LoadInt64(&m.summaryDurationTotalNs),
		RateLimited:            copyCounts(m.rateLimited),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == "success" {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncAuthRejected increments the rejected bearer token counter.
func (m *InMemoryRecorder) IncAuthRejected() {
	atomic.AddUint64(&m.authRejected, 1)
}

// IncRecordCreated increments the created counter for kind.
func (m *InMemoryRecorder) IncRecordCreated(kind string) {
	m.mu.Lock()
	m.recordsCreated[kind]++
	m.mu.Unlock()
}

// IncRecordDeleted increments the deleted counter for kind.
func (m *InMemoryRecorder) IncRecordDeleted(kind string) {
	m.mu.Lock()
	m.recordsDeleted[kind]++
	m.mu.Unlock()
}

// ObserveSummaryDuration records how long a summary took to build.
func (m *InMemoryRecorder) ObserveSummaryDuration(duration time.Duration) {
	atomic.AddUint64(&m.summaryDurationCount, 1)
	atomic.AddInt64(&m.summaryDurationTotalNs, duration.Nanoseconds())
}

// IncRateLimited increments the throttled request counter for scope.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	m.mu.Lock()
	m.rateLimited[scope]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
