// Package sync implements the push/pull reconciliation core: the version
// arbiter that detects conflicts and the coordinators that run a push batch,
// a pull scan, and the status query against a store transaction.
package sync

import "github.com/marcus/tasksync/internal/store"

// Outcome is the arbiter's verdict for one incoming record.
type Outcome int

const (
	// Apply means the incoming record overwrites the server state.
	Apply Outcome = iota
	// Conflict means the server holds a strictly newer version and the
	// incoming record is rejected; the client must pull before retrying.
	Conflict
)

// Decision is the result of arbitrating one incoming record.
type Decision struct {
	Outcome     Outcome
	NextVersion int64 // valid only when Outcome == Apply
}

// Decide arbitrates an incoming record against the current server state
// (nil when the record does not exist for this owner). Pure; no I/O.
//
// The rule is one-sided: the server rejects only when it is strictly ahead.
// A client pushing an equal version still wins and the version advances,
// so two submissions of version N land as N then N+1 with no conflict.
// Shipped clients depend on this exact behavior.
func Decide(incoming store.Task, current *store.Task) Decision {
	if current == nil {
		// First sighting of this id for this owner: trust the client's
		// initial version, there is no prior state to compare against.
		return Decision{Outcome: Apply, NextVersion: incoming.Version}
	}
	if current.Version > incoming.Version {
		return Decision{Outcome: Conflict}
	}
	return Decision{Outcome: Apply, NextVersion: incoming.Version + 1}
}
