package store

// SchemaVersion is the current store schema version
const SchemaVersion = 2

// schemaStatements creates all tables and indexes. Statements are run one
// at a time (pgx prepares each Exec, so multi-statement strings do not
// work) and stick to the DDL subset sqlite and postgres share.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT,
		apple_id TEXT,
		tier TEXT NOT NULL DEFAULT 'free',
		created_at BIGINT NOT NULL,
		last_active_at BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		token_hash TEXT UNIQUE NOT NULL,
		token_prefix TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		expires_at BIGINT,
		last_used_at BIGINT,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		user_id TEXT NOT NULL,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		notes TEXT,
		due_date BIGINT,
		priority TEXT,
		completed_at BIGINT,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		version BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		modified_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS schema_info (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_apple_id ON users(apple_id) WHERE apple_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_auth_tokens_user ON auth_tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_auth_tokens_expires ON auth_tokens(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_modified ON tasks(user_id, modified_at)`,
}

// Migration defines a store database migration
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

// Migrations is the list of all store database migrations in order
var Migrations = []Migration{
	// Version 1 is the initial schema - no migration needed
	{
		Version:     2,
		Description: "Add index covering status counts",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_tasks_user_deleted ON tasks(user_id, is_deleted)`,
		},
	},
}
