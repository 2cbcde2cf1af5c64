// internal/adapters/out/firestore/order_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	orderdom "storefront/internal/domain/order"
)

// OrderRepositoryFS implements order.Repository and order.Watcher.
//
// Collection design:
//
//   - collection: orders
//   - docId: auto
//   - fields: userId, userEmail, items[], address{}, subTotal, shipping,
//     discount, couponCode, total, totalItems, status, createdAt
type OrderRepositoryFS struct {
	Client *firestore.Client
	Log    *zap.Logger
}

var (
	_ orderdom.Repository = (*OrderRepositoryFS)(nil)
	_ orderdom.Watcher    = (*OrderRepositoryFS)(nil)
)

func NewOrderRepositoryFS(client *firestore.Client, logger *zap.Logger) *OrderRepositoryFS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderRepositoryFS{Client: client, Log: logger.Named("order_repository_fs")}
}

func (r *OrderRepositoryFS) ordersCol() *firestore.CollectionRef {
	return r.Client.Collection("orders")
}

// ========================
// RepositoryPort impl
// ========================

func (r *OrderRepositoryFS) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	if r.Client == nil {
		return orderdom.Order{}, errors.New("order_repository_fs: firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}

	snap, err := r.ordersCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return orderFromData(snap.Ref.ID, snap.Data()), nil
}

func (r *OrderRepositoryFS) Create(ctx context.Context, o orderdom.Order) (orderdom.Order, error) {
	if r.Client == nil {
		return orderdom.Order{}, errors.New("order_repository_fs: firestore client is nil")
	}

	var docRef *firestore.DocumentRef
	if id := strings.TrimSpace(o.ID); id == "" {
		docRef = r.ordersCol().NewDoc()
	} else {
		docRef = r.ordersCol().Doc(id)
	}
	o.ID = docRef.ID

	if _, err := docRef.Create(ctx, orderToDoc(o)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return orderdom.Order{}, orderdom.ErrConflict
		}
		return orderdom.Order{}, err
	}

	// Read back for the server-assigned createdAt.
	snap, err := docRef.Get(ctx)
	if err != nil {
		r.Log.Warn("read back created order failed", zap.String("order_id", o.ID), zap.Error(err))
		o.CreatedAt = time.Now().UTC()
		return o, nil
	}
	return orderFromData(docRef.ID, snap.Data()), nil
}

// ListByUser queries userId == uid ordered by createdAt desc. Without the
// composite index Firestore answers FailedPrecondition; the query is then
// retried unordered and sorted in memory.
func (r *OrderRepositoryFS) ListByUser(ctx context.Context, userID string, f orderdom.Filter) ([]orderdom.Order, error) {
	if r.Client == nil {
		return nil, errors.New("order_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, orderdom.ErrInvalidUserID
	}

	q := r.ordersCol().Where("userId", "==", uid).OrderBy("createdAt", firestore.Desc)
	if f.Status == "" && f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out, err := r.collect(ctx, q)
	if err == nil {
		return orderdom.ApplyFilter(out, f), nil
	}
	if status.Code(err) != codes.FailedPrecondition {
		return nil, err
	}

	r.Log.Warn("orders index missing, falling back to in-memory sort", zap.String("uid", uid))
	out, err = r.collect(ctx, r.ordersCol().Where("userId", "==", uid))
	if err != nil {
		return nil, err
	}
	orderdom.SortNewestFirst(out)
	return orderdom.ApplyFilter(out, f), nil
}

// WatchByUser pushes the user's full order history on every change.
func (r *OrderRepositoryFS) WatchByUser(ctx context.Context, userID string, onChange func([]orderdom.Order)) (func(), error) {
	if r.Client == nil {
		return nil, errors.New("order_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, orderdom.ErrInvalidUserID
	}

	subCtx, cancel := context.WithCancel(ctx)
	it := r.ordersCol().Where("userId", "==", uid).Snapshots(subCtx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			qs, err := it.Next()
			if err != nil {
				if subCtx.Err() == nil && status.Code(err) != codes.Canceled {
					r.Log.Warn("order listener stopped", zap.String("uid", uid), zap.Error(err))
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				r.Log.Warn("order snapshot read failed", zap.String("uid", uid), zap.Error(err))
				continue
			}
			out := make([]orderdom.Order, 0, len(docs))
			for _, d := range docs {
				out = append(out, orderFromData(d.Ref.ID, d.Data()))
			}
			orderdom.SortNewestFirst(out)
			onChange(out)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			it.Stop()
			<-done
		})
	}, nil
}

func (r *OrderRepositoryFS) collect(ctx context.Context, q firestore.Query) ([]orderdom.Order, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	var out []orderdom.Order
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, orderFromData(doc.Ref.ID, doc.Data()))
	}
	return out, nil
}

// ========================
// mapping
// ========================

func orderToDoc(o orderdom.Order) map[string]any {
	items := make([]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, lineItemToDoc(it))
	}
	return map[string]any{
		"userId":    o.UserID,
		"userEmail": o.UserEmail,
		"items":     items,
		"address": map[string]any{
			"firstName": o.Address.FirstName,
			"lastName":  o.Address.LastName,
			"email":     o.Address.Email,
			"address":   o.Address.Address,
			"address2":  o.Address.Address2,
			"country":   o.Address.Country,
			"state":     o.Address.State,
			"zip":       o.Address.Zip,
		},
		"subTotal":   o.SubTotal,
		"shipping":   o.Shipping,
		"discount":   o.Discount,
		"couponCode": o.CouponCode,
		"total":      o.Total,
		"totalItems": o.TotalItems,
		"status":     string(o.Status),
		"createdAt":  firestore.ServerTimestamp,
	}
}

func orderFromData(id string, raw map[string]any) orderdom.Order {
	o := orderdom.Order{
		ID:         id,
		UserID:     asString(raw["userId"]),
		UserEmail:  asString(raw["userEmail"]),
		SubTotal:   asFloat(raw["subTotal"]),
		Shipping:   asFloat(raw["shipping"]),
		Discount:   asFloat(raw["discount"]),
		CouponCode: asString(raw["couponCode"]),
		Total:      asFloat(raw["total"]),
		TotalItems: asInt(raw["totalItems"]),
		Status:     orderdom.Status(asString(raw["status"])),
	}
	if t, ok := asTime(raw["createdAt"]); ok {
		o.CreatedAt = t.UTC()
	}
	if a, ok := asMap(raw["address"]); ok {
		o.Address = orderdom.Address{
			FirstName: asString(a["firstName"]),
			LastName:  asString(a["lastName"]),
			Email:     asString(a["email"]),
			Address:   asString(a["address"]),
			Address2:  asString(a["address2"]),
			Country:   asString(a["country"]),
			State:     asString(a["state"]),
			Zip:       asString(a["zip"]),
		}
	}
	if xs, ok := raw["items"].([]any); ok {
		for _, x := range xs {
			if it, ok := lineItemFromDoc("", x); ok {
				o.Items = append(o.Items, it)
			}
		}
	}
	if o.TotalItems == 0 {
		for _, it := range o.Items {
			o.TotalItems += it.Qty
		}
	}
	return o
}
