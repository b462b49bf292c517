package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/fragcache/auth"
	"github.com/jonwraymond/fragcache/settings"
)

func newTenantCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenant records in the settings store.",
	}
	cmd.AddCommand(newTenantAddCmd(f), newTenantListCmd(f))
	return cmd
}

func newTenantAddCmd(f *flags) *cobra.Command {
	var t settings.Tenant
	cmd := &cobra.Command{
		Use:   "add <tenant>",
		Short: "Create or replace a tenant record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.ID = args[0]
			t.CreatedAt = time.Now().UTC()
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				if err := a.store.PutTenant(ctx, t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tenant %s saved\n", t.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&t.Archived, "archived", false, "mark the tenant archived")
	cmd.Flags().BoolVar(&t.Spam, "spam", false, "mark the tenant as spam")
	cmd.Flags().BoolVar(&t.Deleted, "deleted", false, "mark the tenant deleted")
	return cmd
}

func newTenantListCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tenants with their toggle state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				tenants, err := a.svc.Tenants(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TENANT\tACTIVE\tTOGGLE")
				for _, t := range tenants {
					value, set, err := a.store.Enabled(ctx, t.ID)
					if err != nil {
						return err
					}
					toggle := "unset"
					if set {
						toggle = fmt.Sprint(value)
					}
					fmt.Fprintf(tw, "%s\t%t\t%s\n", t.ID, t.Active(), toggle)
				}
				return tw.Flush()
			})
		},
	}
}

func newTokenCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue action tokens for the admin API.",
	}

	var action, subject string
	issue := &cobra.Command{
		Use:   "issue <tenant>",
		Short: "Print a signed token allowing one action on one tenant.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac := f.cfg.Admin
			if ac.TokenSecret == "" {
				return fmt.Errorf("fragcache: FRAGCACHE_TOKEN_SECRET is not set")
			}
			if action == auth.ActionIssueToken {
				return fmt.Errorf("fragcache: tokens cannot delegate %q", action)
			}
			tokens, err := auth.NewTokenService(auth.TokenConfig{
				Secret: []byte(ac.TokenSecret),
				TTL:    ac.TokenTTL,
			})
			if err != nil {
				return err
			}
			token, exp, err := tokens.Issue(subject, args[0], action)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.UTC().Format(time.RFC3339))
			return nil
		},
	}
	issue.Flags().StringVar(&action, "action", auth.ActionPurge, "action the token allows")
	issue.Flags().StringVar(&subject, "subject", "cli", "principal recorded in the token")

	cmd.AddCommand(issue)
	return cmd
}
