package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func TestGenerateAndParseToken(t *testing.T) {
	JwtKey = []byte("test-secret")

	token, err := GenerateJWT("64f1c0ffee0000000000aaaa", "customer")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != "64f1c0ffee0000000000aaaa" {
		t.Fatalf("expected user id to round-trip, got %q", claims.UserID)
	}
	if claims.Role != "customer" {
		t.Fatalf("expected role to round-trip, got %q", claims.Role)
	}
}

func TestParseTokenExpired(t *testing.T) {
	JwtKey = []byte("test-secret")

	claims := &Claims{
		UserID: "someone",
		Role:   "customer",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JwtKey)
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}

	if _, err := ParseToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestParseTokenWrongKey(t *testing.T) {
	JwtKey = []byte("test-secret")
	token, err := GenerateJWT("someone", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	JwtKey = []byte("a-different-secret")
	if _, err := ParseToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong signing key, got %v", err)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	JwtKey = []byte("test-secret")
	if _, err := ParseToken("not-a-token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for malformed token, got %v", err)
	}
}
