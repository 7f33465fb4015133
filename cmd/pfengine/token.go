package main

import (
	"fmt"
	"time"

	"github.com/propertyfriends/pf-engine/api"
	"github.com/spf13/cobra"
)

func tokenCmd(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the cron endpoints",
		Long:  `Signs a token with auth.cron_secret for an external scheduler to call /api/cron.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ttl == 0 {
				ttl = a.cfg.Auth.TokenTTL
			}
			token, err := api.IssueToken(a.cfg.Auth.CronSecret, subject, ttl, a.now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", api.CronSubject, "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	return cmd
}
