package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/adapters/out/sqlite"
	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
	appcfg "storefront/internal/infra/config"
)

func offlineConfig(path string) *appcfg.Config {
	cfg := appcfg.Default()
	cfg.Offline = true
	cfg.LocalDBPath = path
	return cfg
}

func TestBuildOffline(t *testing.T) {
	ctx := context.Background()
	c, err := Build(ctx, offlineConfig(sqlite.MemoryPath), nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	assert.Nil(t, c.Infra)

	_, err = c.Engine.Dispatch(ctx, cartdom.AddItem{Product: productdom.Product{ID: "1", Price: 3}})
	require.NoError(t, err)

	st, err := c.Session.SignIn(ctx, "u1:u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", st.UID)
	assert.True(t, c.Engine.Status().Merged)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRestoreAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storefront.db")

	c, err := Build(ctx, offlineConfig(path), nil)
	require.NoError(t, err)
	_, err = c.Session.SignIn(ctx, "u1")
	require.NoError(t, err)
	_, err = c.Engine.Dispatch(ctx, cartdom.AddItem{Product: productdom.Product{ID: "1"}})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Build(ctx, offlineConfig(path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	assert.Equal(t, 1, c.Engine.Snapshot().TotalQty(), "local cart survives restart")
	st := c.Restore(ctx)
	assert.Equal(t, "u1", st.UID)
	assert.True(t, c.Engine.Status().Merged)
}

func TestBuildNilConfig(t *testing.T) {
	_, err := Build(context.Background(), nil, nil)
	assert.Error(t, err)
}
