// Package main provides a CLI tool for generating test tokens for the aegis
// API. These tokens use the dev signing key and will NOT work in production.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "aegis/internal/jwt_token"
	"aegis/internal/rbac"
)

const (
	// Matches config.go when JWT_SIGNING_KEY is not set.
	devSigningKey   = "dev-secret-key-change-in-production"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	userID := flag.String("user-id", "", "User ID (UUID). Generated if empty.")
	role := flag.String("role", "admin", "Role claim (admin, manager, client, candidate)")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	key := flag.String("key", devSigningKey, "HS256 signing key")
	jsonOutput := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	parsedRole, err := rbac.ParseRole(*role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid role: %s (valid: admin, manager, client, candidate)\n", *role)
		os.Exit(1)
	}

	uid := *userID
	if uid == "" {
		uid = uuid.New().String()
	} else if _, err := uuid.Parse(uid); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user-id UUID: %s\n", uid)
		os.Exit(1)
	}

	svc := jwttoken.NewService(*key, *ttl)
	token, err := svc.Generate(uid, parsedRole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		output := tokenOutput{
			Token:     token,
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub":  uid,
				"role": string(parsedRole),
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("User ID:    %s\n", uid)
	fmt.Printf("Role:       %s\n", parsedRole)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/audit")
}
