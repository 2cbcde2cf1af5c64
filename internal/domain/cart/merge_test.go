package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		local  Cart
		remote Cart
		want   map[string]int
		order  []string
	}{
		{
			name:   "max not sum",
			local:  Cart{Items: []LineItem{item("p", 2)}},
			remote: Cart{Items: []LineItem{item("p", 5)}},
			want:   map[string]int{"p": 5},
			order:  []string{"p"},
		},
		{
			name:   "local larger wins",
			local:  Cart{Items: []LineItem{item("p", 7)}},
			remote: Cart{Items: []LineItem{item("p", 5)}},
			want:   map[string]int{"p": 7},
			order:  []string{"p"},
		},
		{
			name:   "union",
			local:  Cart{Items: []LineItem{item("a", 1)}},
			remote: Cart{Items: []LineItem{item("b", 1)}},
			want:   map[string]int{"a": 1, "b": 1},
			order:  []string{"a", "b"},
		},
		{
			name:   "scenario 3",
			local:  Cart{Items: []LineItem{item("p1", 2)}},
			remote: Cart{Items: []LineItem{item("p1", 5), item("p2", 1)}},
			want:   map[string]int{"p1": 5, "p2": 1},
			order:  []string{"p1", "p2"},
		},
		{
			name:   "both empty",
			local:  Cart{},
			remote: Cart{},
			want:   map[string]int{},
			order:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.local, tt.remote)
			assert.NoError(t, got.Validate())
			assert.Equal(t, tt.order, got.IDs())

			qty := map[string]int{}
			for _, it := range got.Items {
				qty[it.ID] = it.Qty
			}
			assert.Equal(t, tt.want, qty)
		})
	}
}

func TestMergeIsCommutativeOnQuantities(t *testing.T) {
	a := Cart{Items: []LineItem{item("x", 2), item("y", 4)}}
	b := Cart{Items: []LineItem{item("y", 1), item("z", 3)}}

	ab := Merge(a, b).Keyed()
	ba := Merge(b, a).Keyed()
	for id := range ab {
		assert.Equal(t, ab[id].Qty, ba[id].Qty, id)
	}
	assert.Len(t, ba, len(ab))
}

func TestMergeKeepsLocalMetadata(t *testing.T) {
	local := Cart{Items: []LineItem{{Product: Product{ID: "p", Title: "local title"}, Qty: 1}}}
	remote := Cart{Items: []LineItem{{Product: Product{ID: "p", Title: "remote title"}, Qty: 3}}}

	got := Merge(local, remote)
	it, ok := got.Get("p")
	assert.True(t, ok)
	assert.Equal(t, "local title", it.Title)
	assert.Equal(t, 3, it.Qty)
}
