// cmd/storyctl/token.go
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/auth"
)

func newTokenCmd(c *cli) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for the web API",
		Long: `Issue a signed session token. Send it as "Authorization: Bearer <token>".

Outside debug mode AUTH_SECRET_KEY must be set, otherwise the server
would not be able to verify the token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Auth.SecretKey == "" && !c.cfg.DebugMode {
				return errors.New("AUTH_SECRET_KEY is not set")
			}
			secret, err := auth.ResolveSecret(c.cfg.Auth.SecretKey, c.cfg.DebugMode)
			if err != nil {
				return err
			}

			token, err := auth.GenerateToken(userID, &auth.TokenConfig{
				Secret:     secret,
				Expiration: c.cfg.Auth.Expiration,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id to embed in the token")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
