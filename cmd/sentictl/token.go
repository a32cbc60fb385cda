package main

import (
	"fmt"
	"time"

	"github.com/sentitrack/sentitrack/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := issueToken(tokenUser, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func issueToken(userID string, ttl time.Duration) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is required to issue tokens")
	}
	return auth.NewVerifier(cfg.JWTSecret).Issue(userID, ttl)
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "demo-user", "User ID (token subject)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
