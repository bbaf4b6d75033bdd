package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizdoc/internal/api"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with the configured JWT secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, _ := cmd.Flags().GetString("sub")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.HTTP.JWTSecret == "" {
			return fmt.Errorf("no JWT secret configured (set QUIZDOC_JWT_SECRET)")
		}

		tok, err := api.NewAuth(cfg.HTTP.JWTSecret).Issue(sub, role, ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("sub", "quizdoc-cli", "Token subject")
	tokenCmd.Flags().String("role", "teacher", "Token role")
	tokenCmd.Flags().Duration("ttl", 8*time.Hour, "Token lifetime")
}
