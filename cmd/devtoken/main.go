// Command devtoken mints an access token for local testing against a
// server sharing the same JWT_SECRET.
//
//	go run ./cmd/devtoken -user 42 -role super_admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/turfbook/turf-booking/internal/model"
	"github.com/turfbook/turf-booking/internal/utils"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Uint64("user", 1, "user id placed in the sub claim")
	roleName := flag.String("role", string(model.RoleUser), "user, venue_admin or super_admin")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	role, ok := model.ParseRole(*roleName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *roleName)
		os.Exit(2)
	}
	tok, err := utils.NewAccessToken(secret, *userID, role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
