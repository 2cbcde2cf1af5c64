// cmd/storefront/session.go
package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/application/cartsync"
	"storefront/internal/platform/di"
)

func loginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [id-token]",
		Short: "Sign in and merge the device cart into the account cart",
		Long: `Sign in with a Firebase ID token (argument or STOREFRONT_ID_TOKEN).
In --offline mode the token is "uid[:email[:name]]".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := os.Getenv("STOREFRONT_ID_TOKEN")
			if len(args) == 1 {
				token = args[0]
			}
			if strings.TrimSpace(token) == "" {
				return errors.New("id token is required")
			}
			return a.withContainer(cmd.Context(), false, func(c *di.Container) error {
				st, err := c.Session.SignIn(cmd.Context(), token)
				if err != nil && !errors.Is(err, cartsync.ErrMergeFailed) {
					return err
				}
				if err != nil {
					a.printf(cmd, "warning: %v\n", err)
				}
				cart := c.Engine.Snapshot()
				return a.print(cmd, map[string]any{"user": st.Identity, "cart": cart}, func() {
					a.printf(cmd, "signed in as %s (%d items in cart)\n", st.UID, cart.TotalQty())
				})
			})
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				if err := c.Session.SignOut(cmd.Context()); err != nil {
					return err
				}
				a.printf(cmd, "signed out\n")
				return nil
			})
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the remembered identity and sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				st := c.Session.Current()
				status := c.Engine.Status()
				return a.print(cmd, map[string]any{"session": st.Identity, "sync": status}, func() {
					if !st.IsAuthenticated() {
						a.printf(cmd, "not signed in\n")
						return
					}
					a.printf(cmd, "%s <%s> merged=%t\n", st.UID, st.Email, status.Merged)
				})
			})
		},
	}
}
