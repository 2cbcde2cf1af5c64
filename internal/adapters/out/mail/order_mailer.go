// internal/adapters/out/mail/order_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"

	orderdom "storefront/internal/domain/order"
)

// OrderConfirmationCategory tags confirmation mails in SendGrid.
const OrderConfirmationCategory = "order-confirmation"

// EmailClient is the low-level sender.
type EmailClient interface {
	Send(ctx context.Context, m Message) error
}

// OrderMailer sends the order confirmation to the buyer.
type OrderMailer struct {
	client      EmailClient
	fromAddress string
	storeName   string
}

func NewOrderMailer(client EmailClient, fromAddress, storeName string) *OrderMailer {
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		storeName = "Storefront"
	}
	return &OrderMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		storeName:   storeName,
	}
}

// OrderPlaced mails a plain-text summary to the order's e-mail address.
func (m *OrderMailer) OrderPlaced(ctx context.Context, o orderdom.Order) error {
	to := strings.TrimSpace(o.UserEmail)
	if to == "" {
		to = strings.TrimSpace(o.Address.Email)
	}
	if to == "" {
		return fmt.Errorf("mail: order %s has no recipient", o.ID)
	}

	return m.client.Send(ctx, Message{
		From:       m.fromAddress,
		To:         to,
		ToName:     strings.TrimSpace(o.Address.FirstName + " " + o.Address.LastName),
		Subject:    fmt.Sprintf("[%s] Order confirmation %s", m.storeName, o.ID),
		Text:       renderOrderBody(o),
		Categories: []string{OrderConfirmationCategory},
		Args:       map[string]string{"order_id": o.ID, "uid": o.UserID},
	})
}

func renderOrderBody(o orderdom.Order) string {
	var b strings.Builder

	name := strings.TrimSpace(o.Address.FirstName + " " + o.Address.LastName)
	if name != "" {
		fmt.Fprintf(&b, "Hi %s,\n\n", name)
	}
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", o.ID)

	for _, it := range o.Items {
		title := it.Title
		if title == "" {
			title = it.ID
		}
		fmt.Fprintf(&b, "  %d x %s  $%.2f\n", it.Qty, title, it.Price*float64(it.Qty))
	}

	fmt.Fprintf(&b, "\nSubtotal: $%.2f\n", o.SubTotal)
	fmt.Fprintf(&b, "Shipping: $%.2f\n", o.Shipping)
	if o.Discount > 0 {
		fmt.Fprintf(&b, "Discount (%s): -$%.2f\n", o.CouponCode, o.Discount)
	}
	fmt.Fprintf(&b, "Total:    $%.2f\n\n", o.Total)

	a := o.Address
	b.WriteString("Ship to:\n")
	fmt.Fprintf(&b, "  %s\n", a.Address)
	if strings.TrimSpace(a.Address2) != "" {
		fmt.Fprintf(&b, "  %s\n", a.Address2)
	}
	fmt.Fprintf(&b, "  %s %s %s\n", a.State, a.Zip, a.Country)
	return b.String()
}
