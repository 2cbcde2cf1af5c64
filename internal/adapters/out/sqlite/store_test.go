package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
	sessiondom "storefront/internal/domain/session"
)

func openMemory(t *testing.T) *KVStore {
	t.Helper()
	kv, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestCartStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore(openMemory(t))

	c, err := s.Read(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	in := cartdom.Cart{Items: []cartdom.LineItem{
		{Product: productdom.Product{ID: "b", Title: "Bag", Price: 12.5, Rating: productdom.Rating{Rate: 4.5, Count: 10}}, Qty: 2},
		{Product: productdom.Product{ID: "a"}, Qty: 1},
	}}
	require.NoError(t, s.Write(ctx, in))

	out, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.Items, out.Items, "order and metadata survive")

	require.NoError(t, s.Clear(ctx))
	out, err = s.Read(ctx)
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
}

func TestCartStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := openMemory(t)
	s := NewCartStore(kv)

	require.NoError(t, kv.Set(ctx, CartKey, "{not json"))
	_, err := s.Read(ctx)
	assert.ErrorIs(t, err, cartdom.ErrMalformedCart)

	require.NoError(t, kv.Set(ctx, CartKey, `[{"id":"a","qty":0}]`))
	_, err = s.Read(ctx)
	assert.ErrorIs(t, err, cartdom.ErrMalformedCart)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(openMemory(t))

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, sessiondom.Identity{UID: "u1", Email: "u1@example.com"}))
	id, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1@example.com", id.Email)

	require.NoError(t, s.Delete(ctx))
	_, ok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen_FileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "local.db")

	kv, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))
	require.NoError(t, kv.Close())

	kv, err = Open(path)
	require.NoError(t, err)
	defer kv.Close()
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
}
