package sync

import (
	"fmt"
	"time"

	"github.com/marcus/tasksync/internal/store"
)

// PushResult reports the outcome of a push batch. Conflicts are data, not
// errors: a batch with conflicts still commits its accepted records.
type PushResult struct {
	Applied    int
	Conflicts  []string
	ServerTime time.Time
}

// ApplyPush runs one push batch inside the caller's transaction. Every
// record is looked up owner-scoped, arbitrated, and either upserted with
// the shared now timestamp or added to the conflict list. The caller
// commits; a commit failure discards the whole batch, which is safe to
// retry because re-running the same records re-runs the same decisions.
func ApplyPush(tx *store.Tx, userID string, incoming []store.Task, now time.Time) (PushResult, error) {
	result := PushResult{Conflicts: []string{}, ServerTime: now}

	for _, rec := range incoming {
		current, err := tx.TaskForUpdate(userID, rec.ID)
		if err != nil {
			return result, fmt.Errorf("lookup task %s: %w", rec.ID, err)
		}

		d := Decide(rec, current)
		if d.Outcome == Conflict {
			result.Conflicts = append(result.Conflicts, rec.ID)
			continue
		}

		task := rec
		task.UserID = userID
		task.Version = d.NextVersion
		task.ModifiedAt = now
		if current != nil {
			task.CreatedAt = current.CreatedAt
		} else {
			task.CreatedAt = now
		}

		if err := tx.UpsertTask(&task); err != nil {
			return result, fmt.Errorf("apply task %s: %w", rec.ID, err)
		}
		result.Applied++
	}

	return result, nil
}

// Changes returns the owner's records for a pull: everything when since is
// nil, otherwise only records modified strictly after it. Tombstones are
// delivered like any other record. Newest first.
func Changes(tx *store.Tx, userID string, since *time.Time) ([]*store.Task, error) {
	tasks, err := tx.TasksModifiedAfter(userID, since)
	if err != nil {
		return nil, fmt.Errorf("pull changes: %w", err)
	}
	return tasks, nil
}

// Status is the diagnostic summary for one owner.
type Status struct {
	TotalTasks     int64
	LastModifiedAt *time.Time
}

// Summary returns the owner's live record count and sync watermark.
func Summary(tx *store.Tx, userID string) (Status, error) {
	count, last, err := tx.TaskStats(userID)
	if err != nil {
		return Status{}, fmt.Errorf("status summary: %w", err)
	}
	return Status{TotalTasks: count, LastModifiedAt: last}, nil
}
