// Package auth owns the users table: registration and credential checks.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)

type Service struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Service {
	return &Service{db: db, log: log}
}

// Register creates a user with a bcrypt password hash and returns the new
// user's id.
func (s *Service) Register(ctx context.Context, username, password, email string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO users (id, username, password_hash, email) VALUES (?, ?, ?, ?)`),
		id, username, string(hash), email)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// Authenticate checks the credentials and returns the user's id. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	var row struct {
		ID           string `db:"id"`
		PasswordHash string `db:"password_hash"`
	}
	err := s.db.GetContext(ctx,
		&row, s.db.Rebind(`SELECT id, password_hash FROM users WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return row.ID, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	// modernc.org/sqlite has no exported error type for this.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
