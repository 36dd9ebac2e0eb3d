// Command devtoken prints an HS256 access token accepted by the API when it
// runs without AUTH0_DOMAIN.
//
//	go run ./cmd/devtoken -sub dev|priya -scope admin:marketplace
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/devtoken"
)

func main() {
	sub := flag.String("sub", "", "subject (user id) to issue the token for")
	scope := flag.String("scope", "", "space separated scopes")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.UsesAuth0() {
		fmt.Fprintln(os.Stderr, "AUTH0_DOMAIN is set; request tokens from the Auth0 tenant instead")
		os.Exit(1)
	}

	token, err := devtoken.Mint(devtoken.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.Auth0Audience,
		Subject:  *sub,
		Scope:    *scope,
		TTL:      *ttl,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
