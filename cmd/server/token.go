package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwttoken "blueprints/internal/jwt_token"
)

// newTokenCmd mints an access token for local testing against a running server.
func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		userID       string
		name         string
		characters   []int64
		corporations []int64
		ttl          time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := svc.GenerateAccessToken(jwttoken.Member{
				UserID:         uid,
				Name:           name,
				CharacterIDs:   characters,
				CorporationIDs: corporations,
			}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "member user id (uuid)")
	cmd.Flags().StringVar(&name, "name", "", "main character name")
	cmd.Flags().Int64SliceVar(&characters, "character", nil, "character ids owned by the member")
	cmd.Flags().Int64SliceVar(&corporations, "corporation", nil, "corporation ids the member belongs to")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
