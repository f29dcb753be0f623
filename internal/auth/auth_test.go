package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func TestMain(m *testing.M) {
	if err := InitSigningKey(); err != nil {
		panic(err)
	}
	m.Run()
}

func signWithKid(t *testing.T, claims SessionClaims, kid string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(GetSigningKey().PrivateKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestSigningKey(t *testing.T) {
	key := GetSigningKey()
	if key == nil || len(key.ID) != 16 {
		t.Fatalf("unexpected key %+v", key)
	}
	if err := InitSigningKey(); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	if GetSigningKey() != key {
		t.Error("second init must keep the first key")
	}
}

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP failed: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("expected 6 digits, got %q", otp)
		}
		if strings.Trim(otp, "0123456789") != "" {
			t.Fatalf("expected digits only, got %q", otp)
		}
		seen[otp] = true
	}
	if len(seen) < 2 {
		t.Error("expected codes to vary")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not be the password")
	}
	if err := CheckPassword(hash, "secret1"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "secret2"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	user := models.User{ID: "user-1", Email: "ravi@example.in"}

	token, err := IssueSessionToken(user)
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}

	claims, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "ravi@example.in" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected token id")
	}
}

func TestParseSessionTokenRejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseSessionToken("not-a-token"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := SessionClaims{Email: "x@y.in", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    "janseva-dev",
		}}
		signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("dummy-secret"))
		if _, err := ParseSessionToken(signed); err == nil {
			t.Error("expected error for HS256 token")
		}
	})

	t.Run("expired", func(t *testing.T) {
		claims := SessionClaims{Email: "x@y.in", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    "janseva-dev",
		}}
		signed := signWithKid(t, claims, GetSigningKey().ID)
		if _, err := ParseSessionToken(signed); !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("expected expired error, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := SessionClaims{Email: "x@y.in", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    "someone-else",
		}}
		signed := signWithKid(t, claims, GetSigningKey().ID)
		if _, err := ParseSessionToken(signed); !errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			t.Errorf("expected issuer error, got %v", err)
		}
	})

	t.Run("unknown key id", func(t *testing.T) {
		claims := SessionClaims{Email: "x@y.in", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    "janseva-dev",
		}}
		if _, err := ParseSessionToken(signWithKid(t, claims, "0000000000000000")); err == nil {
			t.Error("expected error for unknown kid")
		}
	})
}
