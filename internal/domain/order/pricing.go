package order

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	cartdom "storefront/internal/domain/cart"
)

var ErrInvalidCoupon = errors.New("order: invalid coupon")

// DefaultShippingFee is the flat shipping charge per order.
const DefaultShippingFee = 50.0

type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFixed   CouponKind = "fixed"
)

// Coupon is a checkout discount. Percent coupons take Value as 0-100,
// fixed coupons take Value as a currency amount.
type Coupon struct {
	Code  string     `json:"code" yaml:"code"`
	Kind  CouponKind `json:"kind" yaml:"kind"`
	Value float64    `json:"value" yaml:"value"`
}

// Totals is the price breakdown stored on an order.
type Totals struct {
	SubTotal   float64 `json:"subTotal"`
	Shipping   float64 `json:"shipping"`
	Discount   float64 `json:"discount"`
	CouponCode string  `json:"couponCode,omitempty"`
	Total      float64 `json:"total"`
	TotalItems int     `json:"totalItems"`
}

// CouponBook resolves coupon codes case-insensitively.
type CouponBook map[string]Coupon

func NewCouponBook(coupons []Coupon) CouponBook {
	b := CouponBook{}
	for _, c := range coupons {
		code := normalizeCode(c.Code)
		if code == "" {
			continue
		}
		c.Code = code
		b[code] = c
	}
	return b
}

// Lookup returns nil for an empty code and ErrInvalidCoupon for an unknown one.
func (b CouponBook) Lookup(code string) (*Coupon, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, nil
	}
	c, ok := b[code]
	if !ok {
		return nil, ErrInvalidCoupon
	}
	return &c, nil
}

// ComputeTotals prices a cart snapshot:
//
//	subTotal = Σ price × qty
//	discount = coupon applied to subTotal, never more than subTotal
//	total    = subTotal + shipping - discount
//
// Amounts are rounded to cents.
func ComputeTotals(items []cartdom.LineItem, shipping float64, coupon *Coupon) Totals {
	sub := decimal.Zero
	qty := 0
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Qty)))
		sub = sub.Add(line)
		qty += it.Qty
	}

	ship := decimal.NewFromFloat(shipping)
	if ship.IsNegative() {
		ship = decimal.Zero
	}

	discount := decimal.Zero
	code := ""
	if coupon != nil {
		code = coupon.Code
		v := decimal.NewFromFloat(coupon.Value)
		switch coupon.Kind {
		case CouponPercent:
			discount = sub.Mul(v).Div(decimal.NewFromInt(100))
		case CouponFixed:
			discount = v
		}
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		if discount.GreaterThan(sub) {
			discount = sub
		}
	}

	total := sub.Add(ship).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		SubTotal:   toCents(sub),
		Shipping:   toCents(ship),
		Discount:   toCents(discount),
		CouponCode: code,
		Total:      toCents(total),
		TotalItems: qty,
	}
}

func toCents(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
