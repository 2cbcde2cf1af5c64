package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "storefront/internal/domain/order"
)

func TestBuildListByUserQuery(t *testing.T) {
	q, args := buildListByUserQuery(" u1 ", orderdom.Filter{})
	assert.Contains(t, q, "WHERE user_id = $1\n")
	assert.Contains(t, q, "ORDER BY created_at DESC, id DESC")
	assert.NotContains(t, q, "LIMIT")
	assert.Equal(t, []any{"u1"}, args)

	q, args = buildListByUserQuery("u1", orderdom.Filter{Status: orderdom.StatusDelivered, Limit: 5})
	assert.Contains(t, q, "user_id = $1 AND status = $2")
	assert.Contains(t, q, "LIMIT $3")
	assert.Equal(t, []any{"u1", "delivered", 5}, args)
}

func TestDecodeOrderJSON(t *testing.T) {
	var o orderdom.Order
	o.ID = "o1"
	err := decodeOrderJSON(
		[]byte(`[{"id":"p1","title":"Bag","price":10,"qty":2}]`),
		[]byte(`{"firstName":"Ada","zip":"N1"}`),
		&o,
	)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p1", o.Items[0].ID)
	assert.Equal(t, 2, o.Items[0].Qty)
	assert.Equal(t, "Ada", o.Address.FirstName)

	err = decodeOrderJSON([]byte(`{`), nil, &o)
	assert.ErrorContains(t, err, "order o1")
}
