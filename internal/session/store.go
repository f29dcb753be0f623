// Package session keeps the bearer token issued at login and exposes it as an
// explicit authentication context.
package session

import (
	"context"
	"errors"
)

// TokenKey is the fixed name the token is stored under.
const TokenKey = "token"

// ErrNoToken is returned by Load when nobody is signed in.
var ErrNoToken = errors.New("no session token stored")

// TokenStore persists a single bearer token.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
