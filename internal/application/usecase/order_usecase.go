// internal/application/usecase/order_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
	sessiondom "storefront/internal/domain/session"
)

var ErrEmptyCart = errors.New("usecase: cart is empty")

// CartState is the slice of the cart sync engine checkout needs.
type CartState interface {
	Snapshot() cartdom.Cart
	Clear(ctx context.Context) (cartdom.Cart, error)
}

// SessionState exposes the current identity.
type SessionState interface {
	Current() sessiondom.State
}

// OrderNotifier tells the buyer about a placed order (e-mail).
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, o orderdom.Order) error
}

// ReceiptArchive stores a durable copy of a placed order.
type ReceiptArchive interface {
	Archive(ctx context.Context, o orderdom.Order) (string, error)
}

// PlaceOrderInput is the checkout form.
type PlaceOrderInput struct {
	Address    orderdom.Address `json:"address"`
	CouponCode string           `json:"couponCode,omitempty"`
}

// OrderUsecase orchestrates checkout and order history.
type OrderUsecase struct {
	repo     orderdom.Repository
	cart     CartState
	session  SessionState
	coupons  orderdom.CouponBook
	shipping float64

	notifier OrderNotifier
	archive  ReceiptArchive

	log          *zap.Logger
	sideEffectTO time.Duration
}

func NewOrderUsecase(
	repo orderdom.Repository,
	cart CartState,
	session SessionState,
	coupons orderdom.CouponBook,
	shipping float64,
	logger *zap.Logger,
) *OrderUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shipping < 0 {
		shipping = orderdom.DefaultShippingFee
	}
	return &OrderUsecase{
		repo:         repo,
		cart:         cart,
		session:      session,
		coupons:      coupons,
		shipping:     shipping,
		log:          logger.Named("order_usecase"),
		sideEffectTO: 30 * time.Second,
	}
}

// WithNotifier sets the optional order confirmation sender.
func (u *OrderUsecase) WithNotifier(n OrderNotifier) *OrderUsecase {
	u.notifier = n
	return u
}

// WithReceiptArchive sets the optional receipt archive.
func (u *OrderUsecase) WithReceiptArchive(a ReceiptArchive) *OrderUsecase {
	u.archive = a
	return u
}

// =======================
// Queries
// =======================

// Quote prices the current cart without placing an order.
func (u *OrderUsecase) Quote(ctx context.Context, couponCode string) (orderdom.Totals, error) {
	coupon, err := u.coupons.Lookup(couponCode)
	if err != nil {
		return orderdom.Totals{}, err
	}
	c := u.cart.Snapshot()
	return orderdom.ComputeTotals(c.Items, u.shipping, coupon), nil
}

// ListOrders returns the signed-in user's orders, newest first.
func (u *OrderUsecase) ListOrders(ctx context.Context, f orderdom.Filter) ([]orderdom.Order, error) {
	uid, err := u.currentUID()
	if err != nil {
		return nil, err
	}
	return u.repo.ListByUser(ctx, uid, f)
}

// GetOrder returns one of the signed-in user's orders. Orders of other users
// are reported as not found.
func (u *OrderUsecase) GetOrder(ctx context.Context, id string) (orderdom.Order, error) {
	uid, err := u.currentUID()
	if err != nil {
		return orderdom.Order{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	o, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return orderdom.Order{}, err
	}
	if o.UserID != uid {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return o, nil
}

// WatchOrders streams the signed-in user's order history when the backing
// store supports it.
func (u *OrderUsecase) WatchOrders(ctx context.Context, fn func([]orderdom.Order)) (func(), error) {
	uid, err := u.currentUID()
	if err != nil {
		return nil, err
	}
	w, ok := u.repo.(orderdom.Watcher)
	if !ok {
		return nil, ErrNotSupported("watch orders")
	}
	return w.WatchByUser(ctx, uid, fn)
}

// =======================
// Commands
// =======================

// PlaceOrder turns the current cart into an order, then empties the cart.
// Confirmation e-mail and receipt archive run afterwards; their failures are
// logged and never fail the order.
func (u *OrderUsecase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (orderdom.Order, error) {
	st := u.session.Current()
	if !st.IsAuthenticated() {
		return orderdom.Order{}, sessiondom.ErrUnauthenticated
	}

	c := u.cart.Snapshot()
	if c.IsEmpty() {
		return orderdom.Order{}, ErrEmptyCart
	}

	coupon, err := u.coupons.Lookup(in.CouponCode)
	if err != nil {
		return orderdom.Order{}, err
	}
	totals := orderdom.ComputeTotals(c.Items, u.shipping, coupon)

	o, err := orderdom.New(st.UID, st.Email, c.Items, in.Address, totals)
	if err != nil {
		return orderdom.Order{}, err
	}

	created, err := u.repo.Create(ctx, o)
	if err != nil {
		return orderdom.Order{}, err
	}
	u.log.Info("order placed",
		zap.String("order_id", created.ID),
		zap.String("uid", created.UserID),
		zap.Float64("total", created.Total),
		zap.Int("items", created.TotalItems),
	)

	if _, err := u.cart.Clear(ctx); err != nil {
		u.log.Warn("clear cart after checkout failed", zap.String("order_id", created.ID), zap.Error(err))
	}

	u.afterPlaced(ctx, created)
	return created, nil
}

func (u *OrderUsecase) afterPlaced(ctx context.Context, o orderdom.Order) {
	if u.notifier == nil && u.archive == nil {
		return
	}
	base, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.sideEffectTO)
	defer cancel()

	g, gctx := errgroup.WithContext(base)
	if u.notifier != nil {
		g.Go(func() error {
			if err := u.notifier.OrderPlaced(gctx, o); err != nil {
				u.log.Warn("order confirmation failed", zap.String("order_id", o.ID), zap.Error(err))
			}
			return nil
		})
	}
	if u.archive != nil {
		g.Go(func() error {
			loc, err := u.archive.Archive(gctx, o)
			if err != nil {
				u.log.Warn("receipt archive failed", zap.String("order_id", o.ID), zap.Error(err))
				return nil
			}
			u.log.Debug("receipt archived", zap.String("order_id", o.ID), zap.String("location", loc))
			return nil
		})
	}
	_ = g.Wait()
}

func (u *OrderUsecase) currentUID() (string, error) {
	st := u.session.Current()
	if !st.IsAuthenticated() {
		return "", sessiondom.ErrUnauthenticated
	}
	return st.UID, nil
}
