package store

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"time"
)

const (
	tokenPrefix  = "ts_live_"
	secretLength = 32
)

var base62Chars = []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")

// AuthToken is a stored bearer token (without the plaintext secret).
type AuthToken struct {
	ID          string
	UserID      string
	TokenPrefix string
	Name        string
	ExpiresAt   *time.Time
	LastUsedAt  *time.Time
	CreatedAt   time.Time
}

// GenerateToken creates a new bearer token for the given user. Returns the
// plaintext (shown once) and the stored record. A zero ttl means the token
// never expires.
func (s *Store) GenerateToken(userID, name string, ttl time.Duration) (string, *AuthToken, error) {
	var exists int
	if err := s.conn.QueryRow(s.rebind(`SELECT 1 FROM users WHERE id = ?`), userID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return "", nil, fmt.Errorf("user not found: %s", userID)
		}
		return "", nil, fmt.Errorf("check user: %w", err)
	}

	id, err := generateID("tok_")
	if err != nil {
		return "", nil, fmt.Errorf("generate token id: %w", err)
	}

	secret := make([]byte, secretLength)
	for i := range secret {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base62Chars))))
		if err != nil {
			return "", nil, fmt.Errorf("generate random token: %w", err)
		}
		secret[i] = base62Chars[n.Int64()]
	}

	plaintext := tokenPrefix + string(secret)
	prefix := plaintext[:12]

	hash := sha256.Sum256([]byte(plaintext))
	tokenHash := hex.EncodeToString(hash[:])

	now := time.Now().UTC()
	var expiresAt *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}

	_, err = s.conn.Exec(
		s.rebind(`INSERT INTO auth_tokens (id, user_id, token_hash, token_prefix, name, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, userID, tokenHash, prefix, name, usecPtr(expiresAt), now.UnixMicro(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("insert token: %w", err)
	}

	tok := &AuthToken{
		ID:          id,
		UserID:      userID,
		TokenPrefix: prefix,
		Name:        name,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}
	return plaintext, tok, nil
}

// VerifyToken checks a plaintext bearer token against stored hashes.
// Returns nil, nil, nil when the token is unknown or expired.
func (s *Store) VerifyToken(plaintext string) (*AuthToken, *User, error) {
	hash := sha256.Sum256([]byte(plaintext))
	tokenHash := hex.EncodeToString(hash[:])

	tok := &AuthToken{}
	u := &User{}
	var expiresAt, lastUsedAt sql.NullInt64
	var tokCreated int64
	var passwordHash, appleID sql.NullString
	var userCreated int64
	var lastActive sql.NullInt64
	err := s.conn.QueryRow(s.rebind(`
		SELECT t.id, t.user_id, t.token_prefix, t.name, t.expires_at, t.last_used_at, t.created_at,
		       u.id, u.email, u.password_hash, u.apple_id, u.tier, u.created_at, u.last_active_at
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = ?`), tokenHash,
	).Scan(
		&tok.ID, &tok.UserID, &tok.TokenPrefix, &tok.Name, &expiresAt, &lastUsedAt, &tokCreated,
		&u.ID, &u.Email, &passwordHash, &appleID, &u.Tier, &userCreated, &lastActive,
	)
	if err == sql.ErrNoRows {
		slog.Debug("token not found", "hash_prefix", tokenHash[:8])
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("verify token: %w", err)
	}

	tok.ExpiresAt = fromUsecPtr(expiresAt)
	tok.LastUsedAt = fromUsecPtr(lastUsedAt)
	tok.CreatedAt = fromUsec(tokCreated)
	if passwordHash.Valid {
		u.PasswordHash = &passwordHash.String
	}
	if appleID.Valid {
		u.AppleID = &appleID.String
	}
	u.CreatedAt = fromUsec(userCreated)
	u.LastActiveAt = fromUsecPtr(lastActive)

	if tok.ExpiresAt != nil && tok.ExpiresAt.Before(time.Now().UTC()) {
		slog.Debug("token expired", "token_id", tok.ID, "expires_at", tok.ExpiresAt)
		return nil, nil, nil
	}

	now := time.Now().UTC()
	if _, err := s.conn.Exec(s.rebind(`UPDATE auth_tokens SET last_used_at = ? WHERE id = ?`), now.UnixMicro(), tok.ID); err != nil {
		slog.Warn("update token last_used_at", "token_id", tok.ID, "err", err)
	}
	tok.LastUsedAt = &now

	return tok, u, nil
}

// PurgeExpiredTokens deletes tokens whose expiry has passed.
func (s *Store) PurgeExpiredTokens(now time.Time) (int64, error) {
	res, err := s.conn.Exec(
		s.rebind(`DELETE FROM auth_tokens WHERE expires_at IS NOT NULL AND expires_at < ?`),
		now.UnixMicro(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
