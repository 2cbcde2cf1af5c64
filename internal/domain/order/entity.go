// internal/domain/order/entity.go
package order

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	cartdom "storefront/internal/domain/cart"
)

// ========================================
// Types
// ========================================

type Status string

const (
	StatusDelivered Status = "delivered"
)

// Address is the shipping address captured at checkout.
type Address struct {
	FirstName string `json:"firstName" firestore:"firstName"`
	LastName  string `json:"lastName" firestore:"lastName"`
	Email     string `json:"email" firestore:"email"`
	Address   string `json:"address" firestore:"address"`
	Address2  string `json:"address2,omitempty" firestore:"address2"`
	Country   string `json:"country" firestore:"country"`
	State     string `json:"state" firestore:"state"`
	Zip       string `json:"zip" firestore:"zip"`
}

// Order is an immutable record of a checkout. Items are a snapshot of the
// cart at submission time.
type Order struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	UserEmail string             `json:"userEmail"`
	Items     []cartdom.LineItem `json:"items"`
	Address   Address            `json:"address"`

	SubTotal   float64 `json:"subTotal"`
	Shipping   float64 `json:"shipping"`
	Discount   float64 `json:"discount"`
	CouponCode string  `json:"couponCode,omitempty"`
	Total      float64 `json:"total"`
	TotalItems int     `json:"totalItems"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidUserID  = errors.New("order: invalid userId")
	ErrInvalidAddress = errors.New("order: invalid address")
	ErrInvalidEmail   = errors.New("order: invalid email")
	ErrInvalidItems   = errors.New("order: invalid items")
	ErrInvalidTotals  = errors.New("order: invalid totals")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ========================================
// Constructors
// ========================================

// New builds a validated order. The ID and CreatedAt are assigned by the
// repository on Create.
func New(userID, userEmail string, items []cartdom.LineItem, address Address, totals Totals) (Order, error) {
	o := Order{
		UserID:     strings.TrimSpace(userID),
		UserEmail:  strings.TrimSpace(userEmail),
		Items:      append([]cartdom.LineItem(nil), items...),
		Address:    normalizeAddress(address),
		SubTotal:   totals.SubTotal,
		Shipping:   totals.Shipping,
		Discount:   totals.Discount,
		CouponCode: totals.CouponCode,
		Total:      totals.Total,
		TotalItems: totals.TotalItems,
		Status:     StatusDelivered,
	}
	if o.UserEmail == "" {
		o.UserEmail = o.Address.Email
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ========================================
// Validation
// ========================================

func (o Order) Validate() error {
	if o.UserID == "" {
		return ErrInvalidUserID
	}
	if err := ValidateAddress(o.Address); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return ErrInvalidItems
	}
	if err := (cartdom.Cart{Items: o.Items}).Validate(); err != nil {
		return ErrInvalidItems
	}
	if o.SubTotal < 0 || o.Shipping < 0 || o.Discount < 0 || o.Total < 0 || o.TotalItems <= 0 {
		return ErrInvalidTotals
	}
	return nil
}

// ValidateAddress checks the fields the checkout form marks as required.
func ValidateAddress(a Address) error {
	a = normalizeAddress(a)
	if a.FirstName == "" || a.LastName == "" || a.Address == "" ||
		a.Country == "" || a.State == "" || a.Zip == "" {
		return ErrInvalidAddress
	}
	if !emailPattern.MatchString(a.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidEmail reports whether s looks like an e-mail address.
func ValidEmail(s string) bool { return emailPattern.MatchString(strings.TrimSpace(s)) }

// SortNewestFirst orders by CreatedAt descending, ID descending on ties.
func SortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

func normalizeAddress(a Address) Address {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Email = strings.TrimSpace(a.Email)
	a.Address = strings.TrimSpace(a.Address)
	a.Address2 = strings.TrimSpace(a.Address2)
	a.Country = strings.TrimSpace(a.Country)
	a.State = strings.TrimSpace(a.State)
	a.Zip = strings.TrimSpace(a.Zip)
	return a
}
