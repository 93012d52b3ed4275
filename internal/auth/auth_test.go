package auth

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"stockfolio/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	if err := store.InitSQLiteSchema(context.Background(), db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(db, log)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	id, err := s.Register(ctx, "alice", "s3cret", "alice@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty user id")
	}

	got, err := s.Authenticate(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got != id {
		t.Fatalf("expected id %s, got %s", id, got)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "bob", "hunter2", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := s.Authenticate(ctx, "bob", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody", "hunter2"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "carol", "pw1", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.Register(ctx, "carol", "pw2", ""); err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}
