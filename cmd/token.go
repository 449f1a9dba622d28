package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	infra "github.com/abdabkim/webdevacademy/internal/infrastructure"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token <uid>",
	Short: "Sign an access token for local development",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		option, err := infra.LoadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		if option.Env != infra.EnvDevelopment {
			return errors.New("tokens can only be issued in development")
		}

		ttl, _ := cmd.Flags().GetDuration("ttl")
		token, err := auth.NewJWTUtil(option.Security.JWTMethod, option.Security.JWTSecret, option.Security.TokenName).Issue(args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}
