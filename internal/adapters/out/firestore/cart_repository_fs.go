// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "storefront/internal/domain/cart"
)

// CartStoreFS implements cart.RemoteStore using Firestore.
//
// Collection design:
//
//   - collection: carts
//   - docId: uid
//   - fields: items (map productId -> line item), updatedAt
type CartStoreFS struct {
	Client *firestore.Client
	Log    *zap.Logger
}

var _ cartdom.RemoteStore = (*CartStoreFS)(nil)

func NewCartStoreFS(client *firestore.Client, logger *zap.Logger) *CartStoreFS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartStoreFS{Client: client, Log: logger.Named("cart_store_fs")}
}

func (r *CartStoreFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

func (r *CartStoreFS) doc(uid string) (*firestore.DocumentRef, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_store_fs: firestore client is nil")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errors.New("cart_store_fs: uid is empty")
	}
	return r.col().Doc(uid), nil
}

// Get returns an empty cart when the document does not exist.
func (r *CartStoreFS) Get(ctx context.Context, uid string) (cartdom.Cart, error) {
	ref, err := r.doc(uid)
	if err != nil {
		return cartdom.Cart{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return cartdom.Cart{}, nil
		}
		return cartdom.Cart{}, err
	}
	return r.decode(uid, snap), nil
}

// Put overwrites the whole document.
func (r *CartStoreFS) Put(ctx context.Context, uid string, c cartdom.Cart) error {
	ref, err := r.doc(uid)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, cartToDoc(c))
	return err
}

// UpsertOne updates a single entry of the items map inside a transaction, so
// concurrent writers from several devices commute.
func (r *CartStoreFS) UpsertOne(ctx context.Context, uid string, item cartdom.LineItem, op cartdom.Op) error {
	ref, err := r.doc(uid)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return cartdom.ErrInvalidProduct
	}
	if op < cartdom.OpIncrement || op > cartdom.OpRemoveEntirely {
		return fmt.Errorf("cart_store_fs: unsupported op %s", op)
	}
	itemPath := firestore.FieldPath{"items", id}

	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		exists := true
		var current cartdom.LineItem
		var found bool

		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			exists = false
		} else if items, ok := asMap(snap.Data()["items"]); ok {
			current, found = lineItemFromDoc(id, items[id])
		}

		next, keep := nextLineItem(current, found, item, op)
		if !keep {
			if !exists || !found {
				return nil
			}
			return tx.Update(ref, []firestore.Update{
				{FieldPath: itemPath, Value: firestore.Delete},
				{Path: "updatedAt", Value: firestore.ServerTimestamp},
			})
		}

		data := map[string]any{
			"items":     map[string]any{id: lineItemToDoc(next)},
			"updatedAt": firestore.ServerTimestamp,
		}
		return tx.Set(ref, data, firestore.Merge(itemPath, firestore.FieldPath{"updatedAt"}))
	})
}

// Subscribe starts a snapshot listener on carts/{uid}. The returned func
// stops the listener and waits for its goroutine to exit.
func (r *CartStoreFS) Subscribe(ctx context.Context, uid string, onChange func(cartdom.Cart)) (cartdom.Unsubscribe, error) {
	ref, err := r.doc(uid)
	if err != nil {
		return nil, err
	}
	if onChange == nil {
		return nil, errors.New("cart_store_fs: onChange is nil")
	}

	subCtx, cancel := context.WithCancel(ctx)
	it := ref.Snapshots(subCtx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			snap, err := it.Next()
			if err != nil {
				if subCtx.Err() == nil && status.Code(err) != codes.Canceled {
					r.Log.Warn("cart listener stopped", zap.String("uid", uid), zap.Error(err))
				}
				return
			}
			if snap == nil || !snap.Exists() {
				onChange(cartdom.Cart{})
				continue
			}
			onChange(r.decode(uid, snap))
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

func (r *CartStoreFS) decode(uid string, snap *firestore.DocumentSnapshot) cartdom.Cart {
	c, malformed := cartFromData(snap.Data())
	if malformed > 0 {
		r.Log.Warn("skipped malformed cart entries", zap.String("uid", uid), zap.Int("count", malformed))
	}
	return c
}

// -----------------------------------------
// mapping
// -----------------------------------------

func cartToDoc(c cartdom.Cart) map[string]any {
	items := make(map[string]any, len(c.Items))
	for _, it := range c.Items {
		id := strings.TrimSpace(it.ID)
		if id == "" || it.Qty <= 0 {
			continue
		}
		items[id] = lineItemToDoc(it)
	}
	return map[string]any{
		"items":     items,
		"updatedAt": firestore.ServerTimestamp,
	}
}

// cartFromData decodes a carts/{uid} document. A document without a usable
// items map is an empty cart. malformed counts dropped entries.
func cartFromData(raw map[string]any) (c cartdom.Cart, malformed int) {
	items, ok := asMap(raw["items"])
	if !ok {
		if raw != nil && raw["items"] != nil {
			malformed++
		}
		return cartdom.Cart{}, malformed
	}
	keyed := make(map[string]cartdom.LineItem, len(items))
	for k, v := range items {
		it, ok := lineItemFromDoc(k, v)
		if !ok {
			malformed++
			continue
		}
		keyed[it.ID] = it
	}
	return cartdom.FromKeyed(keyed), malformed
}

// nextLineItem computes the stored entry after op. keep is false when the
// entry must be deleted.
func nextLineItem(current cartdom.LineItem, found bool, item cartdom.LineItem, op cartdom.Op) (cartdom.LineItem, bool) {
	switch op {
	case cartdom.OpIncrement:
		if !found {
			next := item
			next.Qty = 1
			return next, true
		}
		current.Qty++
		return current, true
	case cartdom.OpDecrement:
		if !found || current.Qty <= 1 {
			return cartdom.LineItem{}, false
		}
		current.Qty--
		return current, true
	default:
		return cartdom.LineItem{}, false
	}
}
