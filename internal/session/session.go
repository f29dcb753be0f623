package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/Goofygiraffe06/janseva/internal/logging"
)

// ErrEmptyToken is returned by SignIn when the service handed out no token.
var ErrEmptyToken = errors.New("session: empty token")

// Session is the authentication context handed to whatever needs to know who
// is signed in.
type Session struct {
	store TokenStore
}

func New(store TokenStore) *Session {
	return &Session{store: store}
}

// SignIn records the token from a successful login.
func (s *Session) SignIn(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.store.Save(ctx, token); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	logging.InfoLog("Session signed in")
	return nil
}

// SignOut removes the stored token. Signing out twice is not an error.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("session: clear token: %w", err)
	}
	logging.InfoLog("Session signed out")
	return nil
}

// Token returns the stored token or ErrNoToken.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.store.Load(ctx)
}

// Authenticated reports whether a token is present. Its shape and expiry are
// not checked.
func (s *Session) Authenticated(ctx context.Context) bool {
	_, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoToken) {
		logging.WarnLog("Session token lookup failed: %v", err)
	}
	return err == nil
}
