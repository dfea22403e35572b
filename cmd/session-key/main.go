// Package main provides a one-shot utility for gateway session keys.
//
// Without flags it emits the Ed25519 keypair used for connect token
// verification. With -mint it signs a connect token for one player.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/flyingdarts/x01/internal/platform/config"
	"github.com/flyingdarts/x01/internal/tools/sessionkey"
)

func main() {
	mint := flag.Bool("mint", false, "Sign a connect token instead of generating keys")
	key := flag.String("key", os.Getenv("FLYINGDARTS_SESSION_PRIVATE_KEY"), "Base64 Ed25519 private key")
	user := flag.String("user", "", "Player id for the minted token")
	issuer := flag.String("issuer", os.Getenv("FLYINGDARTS_SESSION_ISSUER"), "Token issuer")
	audience := flag.String("audience", os.Getenv("FLYINGDARTS_SESSION_AUDIENCE"), "Token audience")
	ttl := flag.Duration("ttl", time.Hour, "Minted token lifetime")
	flag.Parse()

	if !*mint {
		if err := sessionkey.Run(os.Stdout, nil); err != nil {
			config.Exitf("generate session key: %v", err)
		}
		return
	}
	err := sessionkey.MintToken(os.Stdout, sessionkey.MintOptions{
		PrivateKey: *key,
		UserID:     *user,
		Issuer:     *issuer,
		Audience:   *audience,
		TTL:        *ttl,
	})
	if err != nil {
		config.Exitf("mint session token: %v", err)
	}
}
