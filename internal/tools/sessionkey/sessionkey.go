// Package sessionkey generates the signing material and connect tokens used
// by the gateway's session verification.
package sessionkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Run generates a session key pair and writes exports.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate session key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export FLYINGDARTS_SESSION_PRIVATE_KEY=%s\n", base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export FLYINGDARTS_SESSION_PUBLIC_KEY=%s\n", base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	return nil
}

// MintOptions configures one connect token.
type MintOptions struct {
	// PrivateKey is the base64 Ed25519 private key emitted by Run.
	PrivateKey string
	UserID     string
	Issuer     string
	Audience   string
	TTL        time.Duration
	Now        func() time.Time
}

type mintClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// MintToken signs one connect token and writes it to out.
func MintToken(out io.Writer, opts MintOptions) error {
	if out == nil {
		return errors.New("output is required")
	}
	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(opts.Issuer) == "" {
		return errors.New("issuer is required")
	}
	if strings.TrimSpace(opts.Audience) == "" {
		return errors.New("audience is required")
	}
	keyBytes, err := base64.RawStdEncoding.DecodeString(strings.TrimSpace(opts.PrivateKey))
	if err != nil {
		return fmt.Errorf("decode session private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return fmt.Errorf("session private key must be %d bytes", ed25519.PrivateKeySize)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	issuedAt := now().UTC()
	claims := mintClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    strings.TrimSpace(opts.Issuer),
			Audience:  jwt.ClaimStrings{strings.TrimSpace(opts.Audience)},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		UserID: userID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(ed25519.PrivateKey(keyBytes))
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
