package gateway

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
)

// sessionEnv holds raw env values before post-parse validation.
type sessionEnv struct {
	Issuer    string `env:"FLYINGDARTS_SESSION_ISSUER"`
	Audience  string `env:"FLYINGDARTS_SESSION_AUDIENCE"`
	PublicKey string `env:"FLYINGDARTS_SESSION_PUBLIC_KEY"`
}

// SessionConfig defines how connect tokens are verified. A zero config
// disables verification and the gateway trusts the playerId query parameter,
// which is only acceptable for local development.
type SessionConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Enabled reports whether token verification is configured.
func (c SessionConfig) Enabled() bool {
	return len(c.Key) == ed25519.PublicKeySize
}

// SessionClaims captures the validated identity of a connecting client.
type SessionClaims struct {
	UserID    string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// sessionClaims is the internal claims type used for JWT parsing.
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// LoadSessionConfigFromEnv reads connect token verification configuration.
// All three variables must be set together; none set means verification is
// disabled.
func LoadSessionConfigFromEnv(now func() time.Time) (SessionConfig, error) {
	var raw sessionEnv
	if err := env.Parse(&raw); err != nil {
		return SessionConfig{}, fmt.Errorf("parse session env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" && audience == "" && publicKey == "" {
		return SessionConfig{}, nil
	}
	if issuer == "" {
		return SessionConfig{}, fmt.Errorf("FLYINGDARTS_SESSION_ISSUER is required")
	}
	if audience == "" {
		return SessionConfig{}, fmt.Errorf("FLYINGDARTS_SESSION_AUDIENCE is required")
	}
	if publicKey == "" {
		return SessionConfig{}, fmt.Errorf("FLYINGDARTS_SESSION_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("decode session public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return SessionConfig{}, fmt.Errorf("session public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return SessionConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// VerifySessionToken verifies a connect token and returns its identity claims.
func VerifySessionToken(token string, cfg SessionConfig) (SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if !cfg.Enabled() || cfg.Issuer == "" || cfg.Audience == "" {
		return SessionClaims{}, errors.New("session token verifier is not configured")
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return SessionClaims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return SessionClaims{}, apperrors.WithMetadata(
			apperrors.CodeSessionTokenInvalid,
			"session token issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return SessionClaims{}, apperrors.WithMetadata(
			apperrors.CodeSessionTokenInvalid,
			"session token audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if strings.TrimSpace(parsed.UserID) == "" {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session token user id is required")
	}
	if parsed.ExpiresAt == nil {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session token exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionTokenExpired, "session token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session token not active yet")
	}

	claims := SessionClaims{
		UserID:    parsed.UserID,
		Issuer:    parsed.Issuer,
		ExpiresAt: exp,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeSessionTokenInvalid, "session token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeSessionTokenInvalid, "session token alg is invalid")
	}
	return apperrors.New(apperrors.CodeSessionTokenInvalid, "session token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
