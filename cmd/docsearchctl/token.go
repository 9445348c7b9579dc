package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/docsearch/internal/auth"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:         "token",
	Short:       "Mint an admin token for GET /documents",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "admin", "token role (admin, reader)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set; /documents is unauthenticated")
	}

	if _, ok := auth.Roles[tokenRole]; !ok {
		return fmt.Errorf("unknown role %q", tokenRole)
	}

	token, err := auth.NewJWTMiddleware(cfg.Auth.JWTSecret).Issue(tokenSubject, tokenRole, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
