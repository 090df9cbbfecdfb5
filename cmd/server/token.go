package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadtrack/internal/domain/auth"
)

var (
	tokenUser string
	tokenRole string
)

// tokenCmd mints a bearer token; credential checks happen upstream.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for an employee id and role",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		role, ok := auth.ParseRole(tokenRole)
		if !ok {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		token, err := auth.GenerateToken(cfg.JWTSecret, auth.Identity{ID: tokenUser, Role: role}, cfg.TokenTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "Employee id placed in the token (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "EMPLOYEE", "Role: EMPLOYEE, MANAGER or ADMIN")
	if err := tokenCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}
	rootCmd.AddCommand(tokenCmd)
}
