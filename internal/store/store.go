// Package store persists users, auth tokens, and task records. It runs on
// sqlite (single file, the default) or postgres, selected at open time.
package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and tunes the backing database.
type Config struct {
	Driver string // "sqlite" (default) or "postgres"
	Path   string // sqlite database file
	URL    string // postgres connection string

	// Connection pool settings for postgres. Ignored for sqlite, which
	// always runs a single connection so write transactions serialize.
	MaxOpenConns int
	MaxIdleConns int
}

// Store wraps the database connection.
type Store struct {
	conn    *sql.DB
	dialect string
}

// Open opens the store and runs any pending migrations. A missing sqlite
// database file is created and initialized.
func Open(cfg Config) (*Store, error) {
	dialect := cfg.Driver
	if dialect == "" {
		dialect = DriverSQLite
	}

	var conn *sql.DB
	switch dialect {
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite store: path is required")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}

		var err error
		conn, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}

		// One connection: a push transaction's read-decide-write is
		// atomic without row locks.
		conn.SetMaxOpenConns(1)

		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
		if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
		conn.Exec("PRAGMA synchronous=NORMAL")
		conn.Exec("PRAGMA foreign_keys=ON")

	case DriverPostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("postgres store: url is required")
		}

		var err error
		conn, err = sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}

		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		maxIdle := cfg.MaxIdleConns
		if maxIdle <= 0 {
			maxIdle = 5
		}
		conn.SetMaxOpenConns(maxOpen)
		conn.SetMaxIdleConns(maxIdle)
		conn.SetConnMaxLifetime(time.Hour)

	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
	}

	s := &Store{conn: conn, dialect: dialect}

	for _, stmt := range schemaStatements {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	if _, err := s.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// Ping checks the database connection is alive.
func (s *Store) Ping() error {
	return s.conn.Ping()
}

// Close checkpoints the WAL (sqlite only) and closes the connection.
func (s *Store) Close() error {
	if s.dialect == DriverSQLite {
		s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.conn.Close()
}

// Begin starts a transaction over the task tables. Reads and writes for a
// sync request happen inside one Tx so a batch commits or aborts as a unit.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx, dialect: s.dialect}, nil
}

// RunMigrations runs any pending database migrations.
func (s *Store) RunMigrations() (int, error) {
	// Ensure schema_info exists
	if _, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_info (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_info: %w", err)
	}

	currentVersion := s.getSchemaVersion()

	if currentVersion >= SchemaVersion {
		return 0, nil
	}

	migrationsRun := 0
	for _, m := range Migrations {
		if m.Version > currentVersion {
			for _, stmt := range m.Statements {
				if _, err := s.conn.Exec(stmt); err != nil {
					return migrationsRun, fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
				}
			}
			if err := s.setSchemaVersion(m.Version); err != nil {
				return migrationsRun, fmt.Errorf("set version %d: %w", m.Version, err)
			}
			migrationsRun++
		}
	}

	// Set to current version if fresh DB
	if currentVersion == 0 {
		if err := s.setSchemaVersion(SchemaVersion); err != nil {
			return migrationsRun, err
		}
	}

	return migrationsRun, nil
}

func (s *Store) getSchemaVersion() int {
	var version string
	err := s.conn.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&version)
	if err != nil {
		return 0
	}
	v, _ := strconv.Atoi(version)
	return v
}

func (s *Store) setSchemaVersion(version int) error {
	_, err := s.conn.Exec(
		s.rebind(`INSERT INTO schema_info (key, value) VALUES ('version', ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		strconv.Itoa(version),
	)
	return err
}

// rebind rewrites ? placeholders to $1..$N for postgres. Queries are
// written once, in sqlite style.
func rebind(dialect, query string) string {
	if dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) rebind(query string) string { return rebind(s.dialect, query) }

// generateID creates a prefixed ID with 16 random hex chars.
func generateID(prefix string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s", prefix, hex.EncodeToString(b)), nil
}

// Timestamps are stored as unix microseconds so both dialects share one
// representation and cursor comparisons are exact.

func usecPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMicro()
}

func fromUsec(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

func fromUsecPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUsec(v.Int64)
	return &t
}
