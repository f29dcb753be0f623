package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Goofygiraffe06/janseva/internal/session"
)

func TestOpenTokenStore(t *testing.T) {
	ctx := context.Background()

	s, closeStore, err := openTokenStore(ctx, "memory")
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	closeStore()
	if _, err := s.Load(ctx); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("expected empty memory store, got %v", err)
	}

	t.Setenv("JANSEVA_TOKEN_DB", filepath.Join(t.TempDir(), "tokens.db"))
	s, closeStore, err = openTokenStore(ctx, "sqlite")
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	if err := s.Save(ctx, "abc123"); err != nil {
		t.Errorf("sqlite save: %v", err)
	}
	closeStore()

	if _, _, err := openTokenStore(ctx, "floppy"); err == nil {
		t.Error("expected error for unknown store kind")
	}
}

func TestRunFailsOnUnknownStore(t *testing.T) {
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "janseva.log"))
	t.Setenv("JANSEVA_TOKEN_STORE", "floppy")
	if code := run(); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}
