package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// User tiers.
const (
	TierFree    = "free"
	TierBasic   = "basic"
	TierPro     = "pro"
	TierPremium = "premium"
	TierTeams   = "teams"
)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash *string // nil for apple-only accounts
	AppleID      *string
	Tier         string
	CreatedAt    time.Time
	LastActiveAt *time.Time
}

const userColumns = `id, email, password_hash, apple_id, tier, created_at, last_active_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	var passwordHash, appleID sql.NullString
	var createdAt int64
	var lastActive sql.NullInt64
	err := row.Scan(&u.ID, &u.Email, &passwordHash, &appleID, &u.Tier, &createdAt, &lastActive)
	if err != nil {
		return nil, err
	}
	if passwordHash.Valid {
		u.PasswordHash = &passwordHash.String
	}
	if appleID.Valid {
		u.AppleID = &appleID.String
	}
	u.CreatedAt = fromUsec(createdAt)
	u.LastActiveAt = fromUsecPtr(lastActive)
	return u, nil
}

// CreateUser inserts a new user with the given email (lowercased).
// passwordHash and appleID may be nil; at least one should be set by the
// caller. An empty tier defaults to free.
func (s *Store) CreateUser(email string, passwordHash, appleID *string, tier string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if tier == "" {
		tier = TierFree
	}

	id, err := generateID("u_")
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.conn.Exec(
		s.rebind(`INSERT INTO users (id, email, password_hash, apple_id, tier, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		id, email, passwordHash, appleID, tier, now.UnixMicro(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		AppleID:      appleID,
		Tier:         tier,
		CreatedAt:    now,
	}, nil
}

// UserByID returns the user with the given ID, or nil if not found.
func (s *Store) UserByID(id string) (*User, error) {
	u, err := scanUser(s.conn.QueryRow(
		s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// UserByEmail returns the user with the given email (case-insensitive), or
// nil if not found.
func (s *Store) UserByEmail(email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(s.conn.QueryRow(
		s.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UserByAppleID returns the user linked to the given apple id, or nil.
func (s *Store) UserByAppleID(appleID string) (*User, error) {
	u, err := scanUser(s.conn.QueryRow(
		s.rebind(`SELECT `+userColumns+` FROM users WHERE apple_id = ?`), appleID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by apple id: %w", err)
	}
	return u, nil
}

// LinkAppleID attaches an apple id to an existing account.
func (s *Store) LinkAppleID(userID, appleID string) error {
	res, err := s.conn.Exec(
		s.rebind(`UPDATE users SET apple_id = ? WHERE id = ?`),
		appleID, userID,
	)
	if err != nil {
		return fmt.Errorf("link apple id: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// TouchLastActive records authenticated activity for the user.
func (s *Store) TouchLastActive(userID string, at time.Time) error {
	_, err := s.conn.Exec(
		s.rebind(`UPDATE users SET last_active_at = ? WHERE id = ?`),
		at.UnixMicro(), userID,
	)
	if err != nil {
		return fmt.Errorf("touch last active: %w", err)
	}
	return nil
}
