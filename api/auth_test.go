package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://aud",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
		"iat": time.Now().Add(-time.Minute).Unix(),
	}
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("  Bearer header.payload.signature ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", token)
	}

	if _, err := bearerToken(""); err != errMissingAuthorization {
		t.Fatalf("expected missing header error, got %v", err)
	}
	if _, err := bearerToken("Basic dXNlcjpwYXNz"); err != errBadAuthorization {
		t.Fatalf("expected bad auth header error, got %v", err)
	}
	if _, err := bearerToken("Bearer " + strings.Repeat(".", 1000)); err != errBadAuthorization {
		t.Fatalf("expected bad auth header error, got %v", err)
	}
}

func TestUserIDFromBearerHS256(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewSharedSecretAuth(secret, "api://aud", "https://issuer/")

	userID, err := auth.UserIDFromBearer(signHS256(t, secret, validClaims()))
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestUserIDFromBearerRejects(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewSharedSecretAuth(secret, "api://aud", "https://issuer/")

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongAudience := validClaims()
	wrongAudience["aud"] = "api://other"
	noSubject := validClaims()
	delete(noSubject, "sub")

	tests := map[string]string{
		"wrong secret":   signHS256(t, []byte("other"), validClaims()),
		"expired":        signHS256(t, secret, expired),
		"wrong audience": signHS256(t, secret, wrongAudience),
		"missing sub":    signHS256(t, secret, noSubject),
		"empty":          "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := auth.UserIDFromBearer(token); err == nil {
				t.Fatalf("expected token to be rejected")
			}
		})
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	s := newTestServer(t, func(o *Options) {
		o.Auth = NewSharedSecretAuth(secret, "", "")
	})

	rec := s.do(t, http.MethodGet, "/api/v1/dashboard", "")
	expectStatus(t, rec, http.StatusUnauthorized)
	if resp := decodeResponse[errorResponse](t, rec); resp.Error != errMissingAuthorization.Error() {
		t.Fatalf("unexpected error: %q", resp.Error)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/dashboard", "",
		"Authorization", "Bearer "+signHS256(t, secret, validClaims()))
	expectStatus(t, rec, http.StatusOK)

	// Health checks stay open for probes.
	expectStatus(t, s.do(t, http.MethodGet, "/healthz", ""), http.StatusOK)
}

func TestSignSharedSecretTokenRoundTrip(t *testing.T) {
	secret := []byte("dev-secret")
	signed, err := SignSharedSecretToken(secret, "perf-user-1", "api://aud", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	userID, err := NewSharedSecretAuth(secret, "api://aud", "").UserIDFromBearer(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "perf-user-1" {
		t.Fatalf("unexpected subject: %s", userID)
	}

	if _, err := NewSharedSecretAuth(secret, "api://other", "").UserIDFromBearer(signed); err == nil {
		t.Fatalf("expected audience mismatch to be rejected")
	}
	if _, err := SignSharedSecretToken(nil, "u", "", time.Hour); err == nil {
		t.Fatalf("expected empty secret to be rejected")
	}
}
