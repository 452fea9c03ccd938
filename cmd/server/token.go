package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khoahotran/folio/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	var ownerID, username string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			tok, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan).GenerateToken(ownerID, username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner id carried by the token")
	cmd.Flags().StringVar(&username, "username", "", "Username carried by the token")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
