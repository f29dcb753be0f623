package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
)

// SigningKey signs dev server session tokens. It is generated per process:
// restarting the server invalidates every token it issued.
type SigningKey struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	// ID is a short fingerprint of PublicKey, sent as the token "kid".
	ID string
}

var (
	current  atomic.Pointer[SigningKey]
	initOnce sync.Once
	initErr  error
)

// InitSigningKey generates the session key on first call; later calls return
// the first call's result.
func InitSigningKey() error {
	initOnce.Do(func() {
		key, err := newSigningKey()
		if err != nil {
			initErr = err
			return
		}
		current.Store(key)
	})
	return initErr
}

// GetSigningKey returns nil until InitSigningKey has succeeded.
func GetSigningKey() *SigningKey {
	return current.Load()
}

func newSigningKey() (*SigningKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	sum := sha256.Sum256(pub)
	return &SigningKey{PrivateKey: priv, PublicKey: pub, ID: hex.EncodeToString(sum[:8])}, nil
}
