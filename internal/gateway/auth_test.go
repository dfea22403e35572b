package gateway

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
)

const (
	testIssuer   = "flyingdarts"
	testAudience = "x01-gateway"
)

func newSigningKey(t *testing.T) (ed25519.PrivateKey, SessionConfig) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cfg := SessionConfig{
		Issuer:   testIssuer,
		Audience: testAudience,
		Key:      pub,
		Now:      func() time.Time { return time.Date(2026, time.March, 14, 19, 0, 0, 0, time.UTC) },
	}
	return priv, cfg
}

func signToken(t *testing.T, key ed25519.PrivateKey, claims sessionClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims(cfg SessionConfig) sessionClaims {
	now := cfg.Now()
	return sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: "alice",
	}
}

func TestVerifySessionToken(t *testing.T) {
	t.Parallel()

	key, cfg := newSigningKey(t)

	claims, err := VerifySessionToken(signToken(t, key, validClaims(cfg)), cfg)
	if err != nil {
		t.Fatalf("verify valid token: %v", err)
	}
	if claims.UserID != "alice" {
		t.Fatalf("user id = %q, want alice", claims.UserID)
	}
	if claims.Issuer != testIssuer {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestVerifySessionTokenRejections(t *testing.T) {
	t.Parallel()

	key, cfg := newSigningKey(t)
	otherKey, _ := newSigningKey(t)

	expired := validClaims(cfg)
	expired.ExpiresAt = jwt.NewNumericDate(cfg.Now().Add(-time.Minute))

	wrongIssuer := validClaims(cfg)
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := validClaims(cfg)
	wrongAudience.Audience = jwt.ClaimStrings{"other-service"}

	noUser := validClaims(cfg)
	noUser.UserID = ""

	noExpiry := validClaims(cfg)
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
		want  apperrors.Code
	}{
		{name: "empty token", token: "", want: apperrors.CodeSessionTokenInvalid},
		{name: "garbage token", token: "not-a-jwt", want: apperrors.CodeSessionTokenInvalid},
		{name: "wrong key", token: signToken(t, otherKey, validClaims(cfg)), want: apperrors.CodeSessionTokenInvalid},
		{name: "expired", token: signToken(t, key, expired), want: apperrors.CodeSessionTokenExpired},
		{name: "wrong issuer", token: signToken(t, key, wrongIssuer), want: apperrors.CodeSessionTokenInvalid},
		{name: "wrong audience", token: signToken(t, key, wrongAudience), want: apperrors.CodeSessionTokenInvalid},
		{name: "missing user id", token: signToken(t, key, noUser), want: apperrors.CodeSessionTokenInvalid},
		{name: "missing expiry", token: signToken(t, key, noExpiry), want: apperrors.CodeSessionTokenInvalid},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := VerifySessionToken(tc.token, cfg)
			if apperrors.CodeOf(err) != tc.want {
				t.Fatalf("error code = %v (%v), want %v", apperrors.CodeOf(err), err, tc.want)
			}
		})
	}
}

func TestLoadSessionConfigFromEnvDisabled(t *testing.T) {
	t.Setenv("FLYINGDARTS_SESSION_ISSUER", "")
	t.Setenv("FLYINGDARTS_SESSION_AUDIENCE", "")
	t.Setenv("FLYINGDARTS_SESSION_PUBLIC_KEY", "")

	cfg, err := LoadSessionConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load disabled config: %v", err)
	}
	if cfg.Enabled() {
		t.Fatal("expected verification disabled")
	}
}

func TestLoadSessionConfigFromEnv(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv("FLYINGDARTS_SESSION_ISSUER", testIssuer)
	t.Setenv("FLYINGDARTS_SESSION_AUDIENCE", testAudience)
	t.Setenv("FLYINGDARTS_SESSION_PUBLIC_KEY", base64.RawStdEncoding.EncodeToString(pub))

	cfg, err := LoadSessionConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Enabled() {
		t.Fatal("expected verification enabled")
	}
	if cfg.Issuer != testIssuer || cfg.Audience != testAudience {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestLoadSessionConfigFromEnvPartial(t *testing.T) {
	t.Setenv("FLYINGDARTS_SESSION_ISSUER", testIssuer)
	t.Setenv("FLYINGDARTS_SESSION_AUDIENCE", "")
	t.Setenv("FLYINGDARTS_SESSION_PUBLIC_KEY", "")

	if _, err := LoadSessionConfigFromEnv(nil); err == nil {
		t.Fatal("expected error for partial configuration")
	}
}
