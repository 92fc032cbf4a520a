// Package services – AuthService
//
// This file implements registration and the stateless credential check used
// by /login. Passwords are stored as bcrypt hashes. Accounts created before
// bcrypt hold an unsalted hex SHA-256 digest; those still verify and are
// re-hashed with bcrypt on the first successful login.
package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/aoubot-backend/internal/repo"
)

// Result is the outcome of a registration or login attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthService owns the users table.
type AuthService struct {
	DB *gorm.DB

	// Cost is the bcrypt work factor; zero means bcrypt.DefaultCost.
	Cost int
}

// NewAuthService returns an AuthService using the default bcrypt cost.
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db, Cost: bcrypt.DefaultCost}
}

// Register creates a user. Validation failures and duplicates are reported
// through Result; only storage failures are returned as errors.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (Result, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	err := s.register(ctx, strings.TrimSpace(username), strings.TrimSpace(email), strings.TrimSpace(password))
	return result(err, MsgRegistered)
}

func (s *AuthService) register(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return ErrMissingFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return err
	}
	if _, err := repo.CreateUser(ctx, s.DB, username, email, string(hash)); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// Login verifies email and password. Unknown emails and wrong passwords give
// the same Result.
func (s *AuthService) Login(ctx context.Context, email, password string) (Result, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	err := s.login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
	return result(err, MsgLoggedIn)
}

func (s *AuthService) login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	if isLegacyHash(u.PasswordHash) {
		if !legacyMatch(u.PasswordHash, password) {
			return ErrInvalidCredentials
		}
		s.upgrade(ctx, u.ID, password)
		return nil
	}

	switch err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	default:
		log.Warn().Err(err).Uint("user_id", u.ID).Msg("unreadable password hash")
		return ErrInvalidCredentials
	}
}

// upgrade replaces a legacy digest with a bcrypt hash. Failure only costs a
// retry on the next login.
func (s *AuthService) upgrade(ctx context.Context, userID uint, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err == nil {
		err = repo.UpdatePasswordHash(ctx, s.DB, userID, string(hash))
	}
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("password hash upgrade failed")
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("auth.hash_upgraded", true))
}

// UserID resolves email to a user id. Empty or unknown emails yield 0.
func (s *AuthService) UserID(ctx context.Context, email string) (uint, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, nil
	}
	return repo.UserIDByEmail(ctx, s.DB, email)
}

func (s *AuthService) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

func result(err error, okMsg string) (Result, error) {
	if err == nil {
		return Result{Success: true, Message: okMsg}, nil
	}
	if msg := Message(err); msg != "" {
		return Result{Success: false, Message: msg}, nil
	}
	return Result{}, err
}

// isLegacyHash reports whether h is a hex SHA-256 digest.
func isLegacyHash(h string) bool {
	if len(h) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}

func legacyMatch(stored, password string) bool {
	sum := sha256.Sum256([]byte(password))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(want)) == 1
}
