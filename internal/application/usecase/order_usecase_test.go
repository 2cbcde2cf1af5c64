package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/adapters/out/memory"
	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
	sessiondom "storefront/internal/domain/session"
)

type fakeCart struct {
	mu      sync.Mutex
	c       cartdom.Cart
	cleared int
}

func (f *fakeCart) Snapshot() cartdom.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.c.Clone()
}

func (f *fakeCart) Clear(context.Context) (cartdom.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c = cartdom.Cart{}
	f.cleared++
	return f.c, nil
}

func (f *fakeCart) Dispatch(_ context.Context, a cartdom.Action) (cartdom.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next, _, err := cartdom.Reduce(f.c, a)
	if err != nil {
		return f.c.Clone(), err
	}
	f.c = next
	return next.Clone(), nil
}

type fixedSession struct{ st sessiondom.State }

func (s fixedSession) Current() sessiondom.State { return s.st }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, o orderdom.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, o.ID)
	return n.err
}

type failingArchive struct{}

func (failingArchive) Archive(context.Context, orderdom.Order) (string, error) {
	return "", errors.New("bucket gone")
}

func line(id string, price float64, qty int) cartdom.LineItem {
	return cartdom.LineItem{Product: productdom.Product{ID: id, Title: id, Price: price}, Qty: qty}
}

func address() orderdom.Address {
	return orderdom.Address{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Address: "1 Engine Way", Country: "UK", State: "London", Zip: "N1",
	}
}

func signedIn(uid string) fixedSession {
	return fixedSession{st: sessiondom.Authenticated(sessiondom.Identity{UID: uid, Email: uid + "@example.com"})}
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	cart := &fakeCart{c: cartdom.Cart{Items: []cartdom.LineItem{line("p1", 20, 2), line("p2", 5.5, 1)}}}
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	coupons := orderdom.NewCouponBook([]orderdom.Coupon{{Code: "HALF", Kind: orderdom.CouponPercent, Value: 50}})

	u := NewOrderUsecase(repo, cart, signedIn("u1"), coupons, orderdom.DefaultShippingFee, nil).
		WithNotifier(notifier).
		WithReceiptArchive(failingArchive{})

	o, err := u.PlaceOrder(ctx, PlaceOrderInput{Address: address(), CouponCode: "half"})
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.False(t, o.CreatedAt.IsZero())
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "u1@example.com", o.UserEmail)
	assert.Equal(t, orderdom.StatusDelivered, o.Status)
	assert.Equal(t, 45.5, o.SubTotal)
	assert.Equal(t, 22.75, o.Discount)
	assert.Equal(t, 72.75, o.Total)
	assert.Equal(t, 3, o.TotalItems)
	assert.Equal(t, "HALF", o.CouponCode)

	assert.Equal(t, 1, cart.cleared)
	assert.True(t, cart.Snapshot().IsEmpty())
	assert.Equal(t, []string{o.ID}, notifier.sent, "side-effect failures do not fail the order")

	got, err := u.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	list, err := u.ListOrders(ctx, orderdom.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPlaceOrder_Rejections(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	full := func() *fakeCart { return &fakeCart{c: cartdom.Cart{Items: []cartdom.LineItem{line("p1", 1, 1)}}} }

	u := NewOrderUsecase(repo, full(), fixedSession{}, nil, 50, nil)
	_, err := u.PlaceOrder(ctx, PlaceOrderInput{Address: address()})
	assert.ErrorIs(t, err, sessiondom.ErrUnauthenticated)

	u = NewOrderUsecase(repo, &fakeCart{}, signedIn("u1"), nil, 50, nil)
	_, err = u.PlaceOrder(ctx, PlaceOrderInput{Address: address()})
	assert.ErrorIs(t, err, ErrEmptyCart)

	cart := full()
	u = NewOrderUsecase(repo, cart, signedIn("u1"), nil, 50, nil)
	_, err = u.PlaceOrder(ctx, PlaceOrderInput{Address: address(), CouponCode: "NOPE"})
	assert.ErrorIs(t, err, orderdom.ErrInvalidCoupon)

	bad := address()
	bad.FirstName = ""
	_, err = u.PlaceOrder(ctx, PlaceOrderInput{Address: bad})
	assert.ErrorIs(t, err, orderdom.ErrInvalidAddress)
	assert.Zero(t, cart.cleared, "cart is kept when the order is rejected")

	list, err := repo.ListByUser(ctx, "u1", orderdom.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetOrder_OtherUsersOrderIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	cart := &fakeCart{c: cartdom.Cart{Items: []cartdom.LineItem{line("p1", 1, 1)}}}

	o, err := NewOrderUsecase(repo, cart, signedIn("owner"), nil, 50, nil).
		PlaceOrder(ctx, PlaceOrderInput{Address: address()})
	require.NoError(t, err)

	other := NewOrderUsecase(repo, cart, signedIn("other"), nil, 50, nil)
	_, err = other.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, orderdom.ErrNotFound)

	list, err := other.ListOrders(ctx, orderdom.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestQuoteAndWatch(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	cart := &fakeCart{c: cartdom.Cart{Items: []cartdom.LineItem{line("p1", 10, 3)}}}
	coupons := orderdom.NewCouponBook([]orderdom.Coupon{{Code: "FIVE", Kind: orderdom.CouponFixed, Value: 5}})
	u := NewOrderUsecase(repo, cart, signedIn("u1"), coupons, 50, nil)

	q, err := u.Quote(ctx, "five")
	require.NoError(t, err)
	assert.Equal(t, 75.0, q.Total)

	var mu sync.Mutex
	var batches [][]orderdom.Order
	stop, err := u.WatchOrders(ctx, func(os []orderdom.Order) {
		mu.Lock()
		batches = append(batches, os)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	_, err = u.PlaceOrder(ctx, PlaceOrderInput{Address: address()})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 2)
	assert.Empty(t, batches[0])
	assert.Len(t, batches[1], 1)
}

type plainRepo struct{ orderdom.Repository }

func TestWatchOrdersNotSupported(t *testing.T) {
	u := NewOrderUsecase(plainRepo{memory.NewOrderRepository()}, &fakeCart{}, signedIn("u1"), nil, 50, nil)

	_, err := u.WatchOrders(context.Background(), func([]orderdom.Order) {})
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
	assert.Contains(t, err.Error(), "watch orders")
}
