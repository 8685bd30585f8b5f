// Command devtoken prints a bearer token for local API calls. Production
// tokens come from the account service that shares the JWT secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"wholesale-backend/internal/auth"
	"wholesale-backend/internal/config"
)

func main() {
	userID := flag.Int("user", 1, "operator user id")
	name := flag.String("name", "developer", "operator name")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	token, err := auth.NewJWTManager(cfg).GenerateToken(*userID, *name, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
