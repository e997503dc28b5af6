package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/config"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/jwtsigner"
)

func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a development bearer token for a user",
		Long:  "Issue an HS256 token signed with AUTH_HS256_SECRET. Intended for local development.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.AuthHS256Secret == "" {
				return errors.New("AUTH_HS256_SECRET is not set")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")

			s, err := jwtsigner.New(cfg.AuthHS256Secret, cfg.AuthIssuer)
			if err != nil {
				return err
			}
			tok, err := s.Sign(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}
