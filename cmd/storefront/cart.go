// cmd/storefront/cart.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	usecase "storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	"storefront/internal/platform/di"
)

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
		Long: `Cart changes apply locally at once and reach the account cart in the
background while signed in.

Examples:
  storefront cart add 3
  storefront cart remove 3
  storefront cart remove-all 3
  storefront cart watch`,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				return a.printCart(cmd, c.CartUC.Get(cmd.Context()))
			})
		},
	}

	mutate := func(use, short string, fn func(*di.Container, *cobra.Command, string) (usecase.CartView, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <product-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
					v, err := fn(c, cmd, args[0])
					if err != nil {
						return err
					}
					return a.printCart(cmd, v)
				})
			},
		}
	}

	add := mutate("add", "Add one unit", func(c *di.Container, cmd *cobra.Command, id string) (usecase.CartView, error) {
		return c.CartUC.Add(cmd.Context(), id)
	})
	remove := mutate("remove", "Remove one unit", func(c *di.Container, cmd *cobra.Command, id string) (usecase.CartView, error) {
		return c.CartUC.RemoveOne(cmd.Context(), id)
	})
	removeAll := mutate("remove-all", "Remove the product entirely", func(c *di.Container, cmd *cobra.Command, id string) (usecase.CartView, error) {
		return c.CartUC.RemoveAll(cmd.Context(), id)
	})

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				v, err := c.CartUC.Clear(cmd.Context())
				if err != nil {
					return err
				}
				return a.printCart(cmd, v)
			})
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print the cart on every change until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				updates := make(chan cartdom.Cart, 16)
				unsubscribe := c.Engine.Subscribe(func(cart cartdom.Cart) {
					select {
					case updates <- cart:
					default:
					}
				})
				defer unsubscribe()

				if err := a.printCart(cmd, c.CartUC.Get(cmd.Context())); err != nil {
					return err
				}
				for {
					select {
					case <-cmd.Context().Done():
						return nil
					case cart := <-updates:
						if err := a.printCart(cmd, usecase.NewCartView(cart)); err != nil {
							return err
						}
					}
				}
			})
		},
	}

	cmd.AddCommand(show, add, remove, removeAll, clear, watch)
	return cmd
}

func (a *app) printCart(cmd *cobra.Command, v usecase.CartView) error {
	return a.print(cmd, v, func() { writeCartTable(cmd.OutOrStdout(), v) })
}

func writeCartTable(out io.Writer, v usecase.CartView) {
	if len(v.Items) == 0 {
		fmt.Fprintln(out, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQTY\tPRICE")
	for _, it := range v.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", it.ID, it.Title, it.Qty, it.Price)
	}
	fmt.Fprintf(tw, "\t\t%d\t%.2f\n", v.TotalItems, v.SubTotal)
	_ = tw.Flush()
}
