// cmd/storefront/contact.go
package main

import (
	"github.com/spf13/cobra"

	usecase "storefront/internal/application/usecase"
	"storefront/internal/platform/di"
)

func contactCmd(a *app) *cobra.Command {
	var in usecase.ContactInput
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), true, func(c *di.Container) error {
				msg, err := c.ContactUC.Submit(cmd.Context(), in)
				if err != nil {
					return err
				}
				return a.print(cmd, msg, func() {
					a.printf(cmd, "message %s sent\n", msg.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Reply-to e-mail")
	cmd.Flags().StringVarP(&in.Message, "message", "m", "", "Message text")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
