// cmd/storefront/products.go
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	productdom "storefront/internal/domain/product"
	"storefront/internal/platform/di"
)

func productsCmd(a *app) *cobra.Command {
	var f productdom.Filters
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
		Long: `List catalog products. Filters combine with AND.

Examples:
  storefront products --search shirt
  storefront products --categories "men's clothing,jewelery" --ratings 4,5
  storefront products get 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), false, func(c *di.Container) error {
				page, err := c.ProductUC.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				return a.print(cmd, page, func() {
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tRATING")
					for _, p := range page.Products {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.1f\n", p.ID, p.Title, p.Category, p.Price, p.Rating.Rate)
					}
					_ = tw.Flush()
					a.printf(cmd, "%d products; categories: %s\n", page.Total, strings.Join(page.Categories, ", "))
				})
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.Search, "search", "", "Match title or description")
	fl.StringSliceVar(&f.Categories, "categories", nil, "Comma-separated categories")
	fl.Float64Var(&f.Price.Min, "min-price", 0, "Minimum price")
	fl.Float64Var(&f.Price.Max, "max-price", 0, "Maximum price (0 = no limit)")
	fl.IntSliceVar(&f.Ratings, "ratings", nil, "Comma-separated star ratings")

	get := &cobra.Command{
		Use:   "get <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), false, func(c *di.Container) error {
				p, err := c.ProductUC.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(cmd, p, func() {
					a.printf(cmd, "%s  %s\n$%.2f  %s  %.1f (%d reviews)\n\n%s\n",
						p.ID, p.Title, p.Price, p.Category, p.Rating.Rate, p.Rating.Count, p.Description)
				})
			})
		},
	}
	cmd.AddCommand(get)
	return cmd
}
