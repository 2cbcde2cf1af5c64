// cmd/storefront/orders.go
package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	usecase "storefront/internal/application/usecase"
	orderdom "storefront/internal/domain/order"
	"storefront/internal/platform/di"
)

func checkoutCmd(a *app) *cobra.Command {
	var (
		addr   orderdom.Address
		coupon string
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order from the current cart",
		Long: `Place an order for everything in the cart and empty it.
Requires a signed-in session.

Example:
  storefront checkout --first-name Ada --last-name Lovelace \
    --email ada@example.com --address "12 Analytical St" \
    --country UK --state London --zip N1 --coupon SAVE10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				o, err := c.OrderUC.PlaceOrder(cmd.Context(), usecase.PlaceOrderInput{Address: addr, CouponCode: coupon})
				if err != nil {
					return err
				}
				return a.print(cmd, o, func() {
					a.printf(cmd, "order %s placed: %d items, total $%.2f\n", o.ID, o.TotalItems, o.Total)
				})
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr.FirstName, "first-name", "", "First name")
	f.StringVar(&addr.LastName, "last-name", "", "Last name")
	f.StringVar(&addr.Email, "email", "", "Contact e-mail")
	f.StringVar(&addr.Address, "address", "", "Street address")
	f.StringVar(&addr.Address2, "address2", "", "Apartment, suite, etc.")
	f.StringVar(&addr.Country, "country", "", "Country")
	f.StringVar(&addr.State, "state", "", "State or region")
	f.StringVar(&addr.Zip, "zip", "", "Postal code")
	f.StringVar(&coupon, "coupon", "", "Coupon code")
	for _, name := range []string{"first-name", "last-name", "email", "address", "country", "state", "zip"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func ordersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Order history and quotes",
	}

	var (
		status string
		limit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List your orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				orders, err := c.OrderUC.ListOrders(cmd.Context(), orderdom.Filter{Status: orderdom.Status(status), Limit: limit})
				if err != nil {
					return err
				}
				return a.print(cmd, orders, func() {
					if len(orders) == 0 {
						a.printf(cmd, "no orders\n")
						return
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tITEMS\tTOTAL")
					for _, o := range orders {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\n",
							o.ID, o.CreatedAt.Local().Format(time.DateTime), o.Status, o.TotalItems, o.Total)
					}
					_ = tw.Flush()
				})
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "Only orders with this status")
	list.Flags().IntVar(&limit, "limit", 0, "Maximum number of orders (0 = all)")

	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				o, err := c.OrderUC.GetOrder(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(cmd, o, func() {
					a.printf(cmd, "order %s (%s) %s\n", o.ID, o.Status, o.CreatedAt.Local().Format(time.DateTime))
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					for _, it := range o.Items {
						fmt.Fprintf(tw, "  %s\t%s\t%d\t%.2f\n", it.ID, it.Title, it.Qty, it.Price)
					}
					_ = tw.Flush()
					writeTotals(cmd, orderdom.Totals{
						SubTotal: o.SubTotal, Shipping: o.Shipping, Discount: o.Discount,
						CouponCode: o.CouponCode, Total: o.Total, TotalItems: o.TotalItems,
					})
				})
			})
		},
	}

	var coupon string
	quote := &cobra.Command{
		Use:   "quote",
		Short: "Price the current cart without ordering",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				t, err := c.OrderUC.Quote(cmd.Context(), coupon)
				if err != nil {
					return err
				}
				return a.print(cmd, t, func() { writeTotals(cmd, t) })
			})
		},
	}
	quote.Flags().StringVar(&coupon, "coupon", "", "Coupon code")

	cmd.AddCommand(list, show, quote)
	return cmd
}

func writeTotals(cmd *cobra.Command, t orderdom.Totals) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subtotal: $%.2f (%d items)\n", t.SubTotal, t.TotalItems)
	fmt.Fprintf(out, "Shipping: $%.2f\n", t.Shipping)
	if t.Discount > 0 {
		fmt.Fprintf(out, "Discount: -$%.2f (%s)\n", t.Discount, t.CouponCode)
	}
	fmt.Fprintf(out, "Total:    $%.2f\n", t.Total)
}
