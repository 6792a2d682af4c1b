package api

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects in-memory server metrics using atomic counters.
type Metrics struct {
	startTime    time.Time
	requests     atomic.Int64
	serverErrors atomic.Int64
	clientErrors atomic.Int64
	pushRequests atomic.Int64
	pullRequests atomic.Int64
	tasksApplied atomic.Int64
	conflicts    atomic.Int64

	mu        sync.Mutex
	seenUsers map[string]struct{}
}

// MetricsSnapshot is a point-in-time view of server metrics.
type MetricsSnapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Requests      int64   `json:"requests"`
	ServerErrors  int64   `json:"server_errors"`
	ClientErrors  int64   `json:"client_errors"`
	PushRequests  int64   `json:"push_requests"`
	PullRequests  int64   `json:"pull_requests"`
	TasksApplied  int64   `json:"tasks_applied"`
	Conflicts     int64   `json:"conflicts"`
	ActiveUsers   int64   `json:"active_users"`
}

// NewMetrics creates a new Metrics instance with the current time as start.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now(), seenUsers: make(map[string]struct{})}
}

// RecordRequest increments the total request counter.
func (m *Metrics) RecordRequest() {
	m.requests.Add(1)
}

// RecordError increments the server error (5xx) counter.
func (m *Metrics) RecordError() {
	m.serverErrors.Add(1)
}

// RecordClientError increments the client error (4xx) counter.
func (m *Metrics) RecordClientError() {
	m.clientErrors.Add(1)
}

// RecordPush records one push batch: applied upserts and conflicts.
func (m *Metrics) RecordPush(applied, conflicts int64) {
	m.pushRequests.Add(1)
	m.tasksApplied.Add(applied)
	m.conflicts.Add(conflicts)
}

// RecordPullRequest increments the pull request counter.
func (m *Metrics) RecordPullRequest() {
	m.pullRequests.Add(1)
}

// RecordUser marks a user as seen since startup.
func (m *Metrics) RecordUser(userID string) {
	m.mu.Lock()
	m.seenUsers[userID] = struct{}{}
	m.mu.Unlock()
}

func (m *Metrics) activeUsers() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seenUsers))
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		UptimeSeconds: time.Since(m.startTime).Seconds(),
		Requests:      m.requests.Load(),
		ServerErrors:  m.serverErrors.Load(),
		ClientErrors:  m.clientErrors.Load(),
		PushRequests:  m.pushRequests.Load(),
		PullRequests:  m.pullRequests.Load(),
		TasksApplied:  m.tasksApplied.Load(),
		Conflicts:     m.conflicts.Load(),
		ActiveUsers:   m.activeUsers(),
	}
}
