package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// withApp opens the runtime without telemetry, runs fn and closes it.
func withApp(cmd *cobra.Command, f *flags, fn func(context.Context, *app) error) (err error) {
	ctx := cmd.Context()
	a, err := newApp(ctx, f.cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func newStatusCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <tenant>",
		Short: "Show a tenant's toggle, capability and notices.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				st, err := a.svc.Status(ctx, args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			})
		},
	}
}

func newToggleCmd(f *flags, name string, enabled bool) *cobra.Command {
	short := "Switch the fragment cache on for a tenant."
	if !enabled {
		short = "Switch the fragment cache off for a tenant and purge it."
	}
	return &cobra.Command{
		Use:   name + " <tenant>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				if err := a.svc.SetEnabled(ctx, args[0], enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: fragment cache %sd\n", args[0], name)
				return nil
			})
		},
	}
}

func newPurgeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <tenant>",
		Short: "Delete every cached fragment of a tenant.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				res, err := a.svc.Purge(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: purged %d keys (%d failed)\n", args[0], res.Keys, res.Failures)
				return res.Err
			})
		},
	}
}
