package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marcus/tasksync/internal/store"
	tasksync "github.com/marcus/tasksync/internal/sync"
)

const maxPushBatch = 1000

// TaskIn is a task record as submitted by a client. Version is a pointer so
// a missing field is distinguishable from an explicit zero: version is
// required on push and its absence rejects the whole batch.
type TaskIn struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       *string    `json:"notes"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority"`
	CompletedAt *time.Time `json:"completed_at"`
	IsDeleted   bool       `json:"is_deleted"`
	Version     *int64     `json:"version"`
}

// TaskOut is a task record as delivered to a client. The server-side
// bookkeeping columns (owner, modified_at) stay off the wire.
type TaskOut struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       *string    `json:"notes"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority"`
	CompletedAt *time.Time `json:"completed_at"`
	IsDeleted   bool       `json:"is_deleted"`
	Version     int64      `json:"version"`
}

// PushRequest is the JSON body for POST /v1/sync/push. LastSyncAt is
// informational only; it never gates which records are processed.
type PushRequest struct {
	Tasks      []TaskIn   `json:"tasks"`
	LastSyncAt *time.Time `json:"last_sync_at"`
}

// PushResponse is the JSON response for a push request.
type PushResponse struct {
	Success    bool      `json:"success"`
	Conflicts  []string  `json:"conflicts"`
	ServerTime time.Time `json:"server_time"`
}

// PullResponse is the JSON response for a pull request.
type PullResponse struct {
	Tasks      []TaskOut `json:"tasks"`
	ServerTime time.Time `json:"server_time"`
}

// StatusResponse is the JSON response for GET /v1/sync/status.
type StatusResponse struct {
	UserID         string     `json:"user_id"`
	TotalTasks     int64      `json:"total_tasks"`
	LastModifiedAt *time.Time `json:"last_modified_at"`
	ServerTime     time.Time  `json:"server_time"`
}

// validateTask checks one incoming record and converts it to a store.Task.
// The id is canonicalized to lowercase UUID form so the same record pushed
// by two devices with different casing lands on one row.
func validateTask(i int, in TaskIn) (store.Task, error) {
	if in.ID == "" {
		return store.Task{}, fmt.Errorf("task %d: id is required", i)
	}
	id, err := uuid.Parse(in.ID)
	if err != nil {
		return store.Task{}, fmt.Errorf("task %d: invalid id %q", i, in.ID)
	}
	if in.Title == "" {
		return store.Task{}, fmt.Errorf("task %d: title is required", i)
	}
	if in.Version == nil {
		return store.Task{}, fmt.Errorf("task %d: version is required", i)
	}
	if *in.Version < 0 {
		return store.Task{}, fmt.Errorf("task %d: version must be non-negative", i)
	}

	return store.Task{
		ID:          id.String(),
		Title:       in.Title,
		Notes:       in.Notes,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		CompletedAt: in.CompletedAt,
		IsDeleted:   in.IsDeleted,
		Version:     *in.Version,
	}, nil
}

func taskOut(t *store.Task) TaskOut {
	return TaskOut{
		ID:          t.ID,
		Title:       t.Title,
		Notes:       t.Notes,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		CompletedAt: t.CompletedAt,
		IsDeleted:   t.IsDeleted,
		Version:     t.Version,
	}
}

// handlePush handles POST /v1/sync/push.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid json body")
		return
	}
	if len(req.Tasks) > maxPushBatch {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(req.Tasks), maxPushBatch))
		return
	}

	// The whole body is strictly typed: one malformed record rejects the
	// entire batch before anything reaches the store.
	incoming := make([]store.Task, len(req.Tasks))
	for i, in := range req.Tasks {
		task, err := validateTask(i, in)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		incoming[i] = task
	}

	tx, err := s.store.Begin()
	if err != nil {
		logFor(r.Context()).Error("begin tx", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "database error")
		return
	}
	defer tx.Rollback()

	now := s.clock.Now()
	result, err := tasksync.ApplyPush(tx, user.UserID, incoming, now)
	if err != nil {
		logFor(r.Context()).Error("apply push", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to apply push")
		return
	}

	if err := tx.Commit(); err != nil {
		logFor(r.Context()).Error("commit tx", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to commit")
		return
	}

	s.metrics.RecordPush(int64(result.Applied), int64(len(result.Conflicts)))
	if len(result.Conflicts) > 0 {
		logFor(r.Context()).Info("push conflicts", "count", len(result.Conflicts))
	}

	writeJSON(w, http.StatusOK, PushResponse{
		Success:    true,
		Conflicts:  result.Conflicts,
		ServerTime: result.ServerTime,
	})
}

// handlePull handles GET /v1/sync/pull.
func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordPullRequest()
	user := getUserFromContext(r.Context())

	var since *time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			ts, err = time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid since timestamp")
				return
			}
		}
		since = &ts
	}

	tx, err := s.store.Begin()
	if err != nil {
		logFor(r.Context()).Error("begin tx", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "database error")
		return
	}
	defer tx.Rollback()

	// Drawn before the scan: the monotonic clock makes this strictly later
	// than every modified_at already in the store, so it is safe as the
	// client's next cursor.
	serverTime := s.clock.Now()

	tasks, err := tasksync.Changes(tx, user.UserID, since)
	if err != nil {
		logFor(r.Context()).Error("pull changes", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to query tasks")
		return
	}
	tx.Rollback() // read-only, just release

	resp := PullResponse{
		Tasks:      make([]TaskOut, len(tasks)),
		ServerTime: serverTime,
	}
	for i, t := range tasks {
		resp.Tasks[i] = taskOut(t)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleStatus handles GET /v1/sync/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	tx, err := s.store.Begin()
	if err != nil {
		logFor(r.Context()).Error("begin tx", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "database error")
		return
	}
	defer tx.Rollback()

	summary, err := tasksync.Summary(tx, user.UserID)
	if err != nil {
		logFor(r.Context()).Error("status summary", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to query status")
		return
	}
	tx.Rollback()

	writeJSON(w, http.StatusOK, StatusResponse{
		UserID:         user.UserID,
		TotalTasks:     summary.TotalTasks,
		LastModifiedAt: summary.LastModifiedAt,
		ServerTime:     s.clock.Now(),
	})
}
