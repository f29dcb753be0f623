package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/store"
)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *store.SQLiteStore {
	t.Helper()

	storeInstance, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { storeInstance.Close() })
	return storeInstance
}

func pendingUser(email string) models.User {
	return models.User{Email: email, Username: "Ravi Kumar", PasswordHash: "hash-1"}
}

func TestUpsertPending(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	if err := s.UpsertPending(ctx, pendingUser("ravi@example.in")); err != nil {
		t.Fatalf("UpsertPending failed: %v", err)
	}

	user, ok := s.GetUser(ctx, "ravi@example.in")
	if !ok {
		t.Fatal("expected user to exist")
	}
	if user.ID == "" {
		t.Error("expected generated id")
	}
	if user.Verified {
		t.Error("new user must not be verified")
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected created_at")
	}
}

func TestUpsertPendingRefreshesUnverified(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	if err := s.UpsertPending(ctx, pendingUser("ravi@example.in")); err != nil {
		t.Fatal(err)
	}
	first, _ := s.GetUser(ctx, "ravi@example.in")

	again := pendingUser("ravi@example.in")
	again.Username = "Ravi K"
	again.PasswordHash = "hash-2"
	if err := s.UpsertPending(ctx, again); err != nil {
		t.Fatalf("re-registering an unverified account should succeed: %v", err)
	}

	user, _ := s.GetUser(ctx, "ravi@example.in")
	if user.Username != "Ravi K" || user.PasswordHash != "hash-2" {
		t.Errorf("expected refreshed record, got %+v", user)
	}
	if user.ID != first.ID {
		t.Error("id must be kept across re-registration")
	}
}

func TestUpsertPendingRejectsVerified(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	if err := s.UpsertPending(ctx, pendingUser("ravi@example.in")); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkVerified(ctx, "ravi@example.in"); err != nil {
		t.Fatalf("MarkVerified failed: %v", err)
	}

	err := s.UpsertPending(ctx, pendingUser("ravi@example.in"))
	if !errors.Is(err, store.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}

	user, _ := s.GetUser(ctx, "ravi@example.in")
	if !user.Verified {
		t.Error("expected verified user")
	}
	if user.PasswordHash != "hash-1" {
		t.Error("verified account must not be overwritten")
	}
}

func TestMarkVerifiedUnknown(t *testing.T) {
	s := setupTestDB(t)
	if err := s.MarkVerified(context.Background(), "ghost@example.in"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	if s.Exists(ctx, "ravi@example.in") {
		t.Error("expected no user")
	}
	if err := s.UpsertPending(ctx, pendingUser("ravi@example.in")); err != nil {
		t.Fatal(err)
	}
	if !s.Exists(ctx, "ravi@example.in") {
		t.Error("expected user")
	}
}

func TestSchemaRejectsEmptyFields(t *testing.T) {
	s := setupTestDB(t)
	err := s.UpsertPending(context.Background(), models.User{Email: "x@y.in", Username: "", PasswordHash: "h"})
	if err == nil {
		t.Error("expected constraint failure for empty username")
	}
}
