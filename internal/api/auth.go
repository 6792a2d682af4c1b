package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/marcus/tasksync/internal/store"
)

const minPasswordLength = 8

// RegisterRequest is the JSON body for POST /v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AppleSignInRequest is the JSON body for POST /v1/auth/apple.
type AppleSignInRequest struct {
	AppleID  string `json:"apple_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// TokenResponse is returned by all auth endpoints on success.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Tier        string `json:"tier"`
}

// issueToken creates a bearer token for the user and writes a TokenResponse.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, user *store.User, name string) {
	plaintext, _, err := s.store.GenerateToken(user.ID, name, s.config.TokenTTL)
	if err != nil {
		logFor(r.Context()).Error("generate token", "uid", user.ID, "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to issue token")
		return
	}

	if err := s.store.TouchLastActive(user.ID, time.Now().UTC()); err != nil {
		logFor(r.Context()).Warn("touch last active", "uid", user.ID, "err", err)
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: plaintext,
		TokenType:   "bearer",
		UserID:      user.ID,
		Email:       user.Email,
		Tier:        user.Tier,
	})
}

// handleRegister handles POST /v1/auth/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.config.AllowSignup {
		writeError(w, http.StatusForbidden, ErrCodeSignupDisabled, "signup is disabled")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid json body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := s.store.UserByEmail(email)
	if err != nil {
		logFor(r.Context()).Error("lookup user", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "database error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, ErrCodeEmailTaken, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logFor(r.Context()).Error("hash password", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create account")
		return
	}
	hashStr := string(hash)

	user, err := s.store.CreateUser(email, &hashStr, nil, "")
	if err != nil {
		logFor(r.Context()).Error("create user", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create account")
		return
	}

	logFor(r.Context()).Info("user registered", "uid", user.ID)
	s.issueToken(w, r, user, "register")
}

// handleLogin handles POST /v1/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid json body")
		return
	}

	user, err := s.store.UserByEmail(req.Email)
	if err != nil {
		logFor(r.Context()).Error("lookup user", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "database error")
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || user.PasswordHash == nil {
		writeError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "incorrect email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "incorrect email or password")
		return
	}

	s.issueToken(w, r, user, "login")
}

// handleAppleSignIn handles POST /v1/auth/apple. Finds the account by apple
// id, else links by email, else creates a new password-less account.
func (s *Server) handleAppleSignIn(w http.ResponseWriter, r *http.Request) {
	var req AppleSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid json body")
		return
	}
	if req.AppleID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "apple_id is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "email is required")
		return
	}

	user, err := s.store.UserByAppleID(req.AppleID)
	if err != nil {
		logFor(r.Context()).Error("lookup by apple id", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "database error")
		return
	}

	if user == nil {
		user, err = s.store.UserByEmail(email)
		if err != nil {
			logFor(r.Context()).Error("lookup by email", "err", err)
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, "database error")
			return
		}
		if user != nil {
			if err := s.store.LinkAppleID(user.ID, req.AppleID); err != nil {
				logFor(r.Context()).Error("link apple id", "uid", user.ID, "err", err)
				writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to link account")
				return
			}
		}
	}

	if user == nil {
		appleID := req.AppleID
		user, err = s.store.CreateUser(email, nil, &appleID, "")
		if err != nil {
			logFor(r.Context()).Error("create apple user", "err", err)
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create account")
			return
		}
		logFor(r.Context()).Info("user registered via apple", "uid", user.ID)
	}

	s.issueToken(w, r, user, "apple")
}
