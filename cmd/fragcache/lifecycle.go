package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errTenantRequired = errors.New("fragcache: a tenant or --network-wide is required")

// tenantArg returns the single tenant argument unless networkWide is set.
func tenantArg(args []string, networkWide bool) (string, error) {
	switch {
	case networkWide && len(args) > 0:
		return "", errors.New("fragcache: --network-wide takes no tenant")
	case networkWide:
		return "", nil
	case len(args) == 0:
		return "", errTenantRequired
	}
	return args[0], nil
}

func newActivateCmd(f *flags) *cobra.Command {
	var networkWide, isNew bool
	cmd := &cobra.Command{
		Use:   "activate [tenant]",
		Short: "Switch the cache on where it can run and was never configured.",
		Long: `activate switches the fragment cache on for a tenant whose toggle was
never set. A tenant whose environment cannot run the cache is forced off.
With --network-wide every active tenant is processed. With --new the tenant
is registered first if it is not known yet.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := tenantArg(args, networkWide)
			if err != nil {
				return err
			}
			if isNew && networkWide {
				return errors.New("fragcache: --new and --network-wide are exclusive")
			}
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				if isNew {
					err = a.svc.ActivateNewTenant(ctx, tenant)
				} else {
					err = a.svc.Activate(ctx, tenant, networkWide)
				}
				if err != nil {
					return err
				}
				return printStatuses(ctx, cmd, a, tenant, networkWide)
			})
		},
	}
	cmd.Flags().BoolVar(&networkWide, "network-wide", false, "activate every active tenant")
	cmd.Flags().BoolVar(&isNew, "new", false, "register the tenant before activating it")
	return cmd
}

func newDeactivateCmd(f *flags) *cobra.Command {
	var networkWide bool
	cmd := &cobra.Command{
		Use:   "deactivate [tenant]",
		Short: "Purge cached fragments, keeping toggles.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := tenantArg(args, networkWide)
			if err != nil {
				return err
			}
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				if err := a.svc.Deactivate(ctx, tenant, networkWide); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deactivated")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&networkWide, "network-wide", false, "deactivate every active tenant")
	return cmd
}

func newUninstallCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove every toggle and the auxiliary directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				if err := a.svc.Uninstall(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "uninstalled")
				return nil
			})
		},
	}
}

// printStatuses writes one line per affected tenant, followed by its notices.
func printStatuses(ctx context.Context, cmd *cobra.Command, a *app, tenant string, networkWide bool) error {
	ids := []string{tenant}
	if networkWide {
		tenants, err := a.svc.Tenants(ctx)
		if err != nil {
			return err
		}
		ids = ids[:0]
		for _, t := range tenants {
			if t.Active() {
				ids = append(ids, t.ID)
			}
		}
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		st, err := a.svc.Status(ctx, id)
		if err != nil {
			return err
		}
		state := "off"
		if st.Enabled {
			state = "on"
		}
		fmt.Fprintf(out, "%s: %s\n", id, state)
		for _, n := range st.Notices {
			fmt.Fprintf(out, "  notice: %s\n", n)
		}
	}
	return nil
}
