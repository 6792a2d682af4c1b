package store

import "database/sql"

// Tx is a transaction over the task tables. A push batch performs all its
// reads and upserts through one Tx so the whole batch commits or rolls back
// as a unit.
type Tx struct {
	tx      *sql.Tx
	dialect string
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction. Safe to call after Commit, which makes it
// usable in a defer.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

func (t *Tx) rebind(query string) string { return rebind(t.dialect, query) }
