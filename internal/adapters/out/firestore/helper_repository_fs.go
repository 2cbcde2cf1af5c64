// internal/adapters/out/firestore/helper_repository_fs.go
package firestore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
)

func asString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func asInt(v any) int {
	if v == nil {
		return 0
	}
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	if v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// asTime returns (time, ok)
func asTime(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	default:
		return time.Time{}, false
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

// ------------------------------------------------------------
// line item <-> document map
// ------------------------------------------------------------

func lineItemToDoc(it cartdom.LineItem) map[string]any {
	return map[string]any{
		"id":          it.ID,
		"title":       it.Title,
		"price":       it.Price,
		"description": it.Description,
		"category":    it.Category,
		"image":       it.Image,
		"rating": map[string]any{
			"rate":  it.Rating.Rate,
			"count": it.Rating.Count,
		},
		"qty": it.Qty,
	}
}

// lineItemFromDoc decodes one stored line item. Two shapes are accepted:
//  1. {id,title,price,...,qty}
//  2. a bare quantity (legacy), keyed by product id
//
// ok is false for entries that cannot be used (no id, qty <= 0).
func lineItemFromDoc(key string, v any) (cartdom.LineItem, bool) {
	key = strings.TrimSpace(key)

	m, isMap := asMap(v)
	if !isMap {
		qty := asInt(v)
		if key == "" || qty <= 0 {
			return cartdom.LineItem{}, false
		}
		return cartdom.LineItem{Product: productdom.Product{ID: key}, Qty: qty}, true
	}

	id := strings.TrimSpace(asString(m["id"]))
	if id == "" {
		id = key
	}
	qty := asInt(m["qty"])
	if id == "" || qty <= 0 {
		return cartdom.LineItem{}, false
	}

	it := cartdom.LineItem{
		Product: productdom.Product{
			ID:          id,
			Title:       asString(m["title"]),
			Price:       asFloat(m["price"]),
			Description: asString(m["description"]),
			Category:    asString(m["category"]),
			Image:       asString(m["image"]),
		},
		Qty: qty,
	}
	if r, ok := asMap(m["rating"]); ok {
		it.Rating = productdom.Rating{Rate: asFloat(r["rate"]), Count: asInt(r["count"])}
	}
	return it, true
}
