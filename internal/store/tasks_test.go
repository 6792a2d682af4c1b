package store

import (
	"testing"
	"time"
)

func createTaskOwner(t *testing.T, s *Store, email string) string {
	t.Helper()
	u, err := s.CreateUser(email, strPtr("h"), nil, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func mustBegin(t *testing.T, s *Store) *Tx {
	t.Helper()
	tx, err := s.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestUpsertAndLookupTask(t *testing.T) {
	s := newTestStore(t)
	owner := createTaskOwner(t, s, "tasks@example.com")

	now := time.Now().UTC().Truncate(time.Microsecond)
	task := &Task{
		UserID:     owner,
		ID:         "11111111-1111-4111-8111-111111111111",
		Title:      "buy milk",
		Notes:      strPtr("2 liters"),
		Priority:   strPtr("high"),
		Version:    1,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	tx := mustBegin(t, s)
	if err := tx.UpsertTask(task); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx = mustBegin(t, s)
	defer tx.Rollback()
	got, err := tx.TaskForUpdate(owner, task.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil {
		t.Fatal("task not found after commit")
	}
	if got.Title != "buy milk" || got.Notes == nil || *got.Notes != "2 liters" {
		t.Fatalf("payload mismatch: %+v", got)
	}
	if got.Version != 1 {
		t.Fatalf("version = %d, want 1", got.Version)
	}
	if !got.ModifiedAt.Equal(now) {
		t.Fatalf("modified_at = %v, want %v", got.ModifiedAt, now)
	}
	if got.DueDate != nil || got.CompletedAt != nil {
		t.Fatalf("expected nil optional timestamps: %+v", got)
	}
}

func TestUpsertOverwritesButKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	owner := createTaskOwner(t, s, "overwrite@example.com")

	created := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	task := &Task{
		UserID: owner, ID: "22222222-2222-4222-8222-222222222222",
		Title: "v1", Version: 1, CreatedAt: created, ModifiedAt: created,
	}

	tx := mustBegin(t, s)
	if err := tx.UpsertTask(task); err != nil {
		t.Fatalf("insert: %v", err)
	}
	tx.Commit()

	later := time.Now().UTC().Truncate(time.Microsecond)
	task.Title = "v2"
	task.Version = 2
	task.IsDeleted = true
	task.CreatedAt = later // must be ignored by the update
	task.ModifiedAt = later

	tx = mustBegin(t, s)
	if err := tx.UpsertTask(task); err != nil {
		t.Fatalf("update: %v", err)
	}
	tx.Commit()

	tx = mustBegin(t, s)
	defer tx.Rollback()
	got, _ := tx.TaskForUpdate(owner, task.ID)
	if got.Title != "v2" || got.Version != 2 || !got.IsDeleted {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed on update: %v", got.CreatedAt)
	}
	if !got.ModifiedAt.Equal(later) {
		t.Fatalf("modified_at = %v, want %v", got.ModifiedAt, later)
	}
}

func TestTaskLookupIsOwnerScoped(t *testing.T) {
	s := newTestStore(t)
	alice := createTaskOwner(t, s, "alice@example.com")
	bob := createTaskOwner(t, s, "bob@example.com")

	now := time.Now().UTC().Truncate(time.Microsecond)
	id := "33333333-3333-4333-8333-333333333333"

	tx := mustBegin(t, s)
	if err := tx.UpsertTask(&Task{UserID: alice, ID: id, Title: "alice's", Version: 1, CreatedAt: now, ModifiedAt: now}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	tx.Commit()

	tx = mustBegin(t, s)
	defer tx.Rollback()
	got, err := tx.TaskForUpdate(bob, id)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatal("bob can see alice's task")
	}
}

func TestTasksModifiedAfter(t *testing.T) {
	s := newTestStore(t)
	owner := createTaskOwner(t, s, "scan@example.com")

	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond)
	ids := []string{
		"44444444-4444-4444-8444-444444444441",
		"44444444-4444-4444-8444-444444444442",
		"44444444-4444-4444-8444-444444444443",
	}

	tx := mustBegin(t, s)
	for i, id := range ids {
		ts := base.Add(time.Duration(i) * time.Second)
		task := &Task{UserID: owner, ID: id, Title: id, Version: 1, CreatedAt: ts, ModifiedAt: ts}
		if i == 1 {
			task.IsDeleted = true
		}
		if err := tx.UpsertTask(task); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	tx.Commit()

	tx = mustBegin(t, s)
	defer tx.Rollback()

	all, err := tx.TasksModifiedAfter(owner, nil)
	if err != nil {
		t.Fatalf("scan all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d tasks, want 3 (tombstones included)", len(all))
	}
	// Newest first.
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("wrong order: %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}

	// Strict greater-than: a cursor equal to the middle row's timestamp
	// returns only the newest.
	cursor := base.Add(time.Second)
	after, err := tx.TasksModifiedAfter(owner, &cursor)
	if err != nil {
		t.Fatalf("scan after: %v", err)
	}
	if len(after) != 1 || after[0].ID != ids[2] {
		t.Fatalf("cursor scan returned %d rows", len(after))
	}
}

func TestTaskStats(t *testing.T) {
	s := newTestStore(t)
	owner := createTaskOwner(t, s, "stats@example.com")

	tx := mustBegin(t, s)
	defer tx.Rollback()
	count, last, err := tx.TaskStats(owner)
	if err != nil {
		t.Fatalf("empty stats: %v", err)
	}
	if count != 0 || last != nil {
		t.Fatalf("expected empty stats, got count=%d last=%v", count, last)
	}
	tx.Rollback()

	now := time.Now().UTC().Truncate(time.Microsecond)
	tombstoneAt := now.Add(time.Second)

	tx = mustBegin(t, s)
	tx.UpsertTask(&Task{UserID: owner, ID: "55555555-5555-4555-8555-555555555551", Title: "live", Version: 1, CreatedAt: now, ModifiedAt: now})
	tx.UpsertTask(&Task{UserID: owner, ID: "55555555-5555-4555-8555-555555555552", Title: "gone", Version: 2, IsDeleted: true, CreatedAt: now, ModifiedAt: tombstoneAt})
	tx.Commit()

	tx = mustBegin(t, s)
	defer tx.Rollback()
	count, last, err = tx.TaskStats(owner)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1 (tombstones excluded)", count)
	}
	// The watermark still covers the tombstone.
	if last == nil || !last.Equal(tombstoneAt) {
		t.Fatalf("last = %v, want %v", last, tombstoneAt)
	}
}

func TestBatchRollsBackAsUnit(t *testing.T) {
	s := newTestStore(t)
	owner := createTaskOwner(t, s, "rollback@example.com")

	now := time.Now().UTC().Truncate(time.Microsecond)
	tx := mustBegin(t, s)
	tx.UpsertTask(&Task{UserID: owner, ID: "66666666-6666-4666-8666-666666666661", Title: "a", Version: 1, CreatedAt: now, ModifiedAt: now})
	tx.UpsertTask(&Task{UserID: owner, ID: "66666666-6666-4666-8666-666666666662", Title: "b", Version: 1, CreatedAt: now, ModifiedAt: now})
	tx.Rollback()

	tx = mustBegin(t, s)
	defer tx.Rollback()
	tasks, err := tx.TasksModifiedAfter(owner, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("rolled-back batch left %d rows", len(tasks))
	}
}
