package sync

import (
	"testing"

	"github.com/marcus/tasksync/internal/store"
)

func TestDecideAbsentRecordAlwaysApplies(t *testing.T) {
	for _, v := range []int64{0, 1, 7, 1 << 40} {
		d := Decide(store.Task{Version: v}, nil)
		if d.Outcome != Apply {
			t.Fatalf("version %d: expected Apply for absent record", v)
		}
		if d.NextVersion != v {
			t.Fatalf("version %d: NextVersion = %d, want the client's initial version", v, d.NextVersion)
		}
	}
}

func TestDecideVersionPairs(t *testing.T) {
	tests := []struct {
		current, incoming int64
		want              Outcome
		nextVersion       int64
	}{
		{current: 1, incoming: 1, want: Apply, nextVersion: 2}, // equal still applies
		{current: 1, incoming: 2, want: Apply, nextVersion: 3},
		{current: 1, incoming: 9, want: Apply, nextVersion: 10},
		{current: 0, incoming: 0, want: Apply, nextVersion: 1},
		{current: 2, incoming: 1, want: Conflict},
		{current: 100, incoming: 99, want: Conflict},
		{current: 1, incoming: 0, want: Conflict},
	}

	for _, tc := range tests {
		d := Decide(store.Task{Version: tc.incoming}, &store.Task{Version: tc.current})
		if d.Outcome != tc.want {
			t.Fatalf("current=%d incoming=%d: outcome = %v, want %v", tc.current, tc.incoming, d.Outcome, tc.want)
		}
		if tc.want == Apply && d.NextVersion != tc.nextVersion {
			t.Fatalf("current=%d incoming=%d: NextVersion = %d, want %d", tc.current, tc.incoming, d.NextVersion, tc.nextVersion)
		}
	}
}
