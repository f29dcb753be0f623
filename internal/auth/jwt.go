package auth

import (
	"errors"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/config"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrKeyNotInitialized = errors.New("session signing key not initialized")

// SessionClaims are carried by the bearer token issued at login.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueSessionToken mints an EdDSA token for a verified user.
func IssueSessionToken(user models.User) (string, error) {
	emailHash := utils.HashEmail(user.Email)

	key := GetSigningKey()
	if key == nil || key.PrivateKey == nil {
		logging.ErrorLog("Session token generation failed [%s]: signing key not initialized", emailHash)
		return "", ErrKeyNotInitialized
	}

	now := time.Now()
	claims := SessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    config.JWTIssuer(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.JWTExpiresIn())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = key.ID
	tokenStr, err := token.SignedString(key.PrivateKey)
	if err != nil {
		logging.ErrorLog("Session token signing failed [%s]: %v", emailHash, err)
		return "", err
	}

	logging.DebugLog("Session token generated [%s]", emailHash)
	return tokenStr, nil
}

// ParseSessionToken verifies signature, issuer and expiry.
func ParseSessionToken(tokenStr string) (*SessionClaims, error) {
	key := GetSigningKey()
	if key == nil || key.PublicKey == nil {
		return nil, ErrKeyNotInitialized
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// Enforce that we only accept EdDSA signed tokens
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, errors.New("unexpected signing method")
		}
		if kid, _ := token.Header["kid"].(string); kid != key.ID {
			return nil, errors.New("token signed by another key")
		}
		return key.PublicKey, nil
	}, jwt.WithIssuer(config.JWTIssuer()), jwt.WithValidMethods([]string{"EdDSA"}), jwt.WithExpirationRequired())
	if err != nil {
		logging.DebugLog("Session token verification failed: %v", err)
		return nil, err
	}

	return claims, nil
}
