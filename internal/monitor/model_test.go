package monitor

import (
	"testing"
	"time"

	"github.com/marcus/tasksync/internal/syncclient"
)

func refresh(t *testing.T, m Model, at time.Time, pushes, pulls int64) Model {
	t.Helper()
	next, _ := m.Update(RefreshDataMsg{
		Health:    &syncclient.HealthResponse{Status: "ok", Time: at},
		Metrics:   &syncclient.MetricsResponse{PushRequests: pushes, PullRequests: pulls},
		Timestamp: at,
	})
	return next.(Model)
}

func TestRefreshComputesPerMinuteRates(t *testing.T) {
	m := NewModel(syncclient.New("http://localhost:8080", ""), 2*time.Second)

	// Counters advancing by 60 per minute must display as 60/min at every
	// steady-state refresh, not double-counted across snapshots.
	t0 := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	m = refresh(t, m, t0, 0, 0)
	if m.PushesPerMin != 0 {
		t.Fatalf("first refresh has no baseline, rate = %f", m.PushesPerMin)
	}

	m = refresh(t, m, t0.Add(time.Minute), 60, 30)
	if m.PushesPerMin != 60 {
		t.Fatalf("PushesPerMin = %f, want 60", m.PushesPerMin)
	}
	if m.PullsPerMin != 30 {
		t.Fatalf("PullsPerMin = %f, want 30", m.PullsPerMin)
	}

	m = refresh(t, m, t0.Add(2*time.Minute), 120, 60)
	if m.PushesPerMin != 60 {
		t.Fatalf("steady-state PushesPerMin = %f, want 60", m.PushesPerMin)
	}
	if m.PullsPerMin != 30 {
		t.Fatalf("steady-state PullsPerMin = %f, want 30", m.PullsPerMin)
	}
}

func TestRefreshKeepsLastMetricsOnFetchError(t *testing.T) {
	m := NewModel(syncclient.New("http://localhost:8080", ""), 2*time.Second)

	t0 := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	m = refresh(t, m, t0, 10, 5)

	next, _ := m.Update(RefreshDataMsg{Err: errFake, Timestamp: t0.Add(time.Minute)})
	m = next.(Model)
	if m.Metrics == nil || m.Metrics.PushRequests != 10 {
		t.Fatalf("failed refresh dropped the last good snapshot: %+v", m.Metrics)
	}
	if m.Err == nil {
		t.Fatal("refresh error not surfaced")
	}
}

type fakeErr struct{}

func (fakeErr) Error() string { return "connection refused" }

var errFake = fakeErr{}
