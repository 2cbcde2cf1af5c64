package cart

import "strings"

// Reduce computes the next cart for an action. It never performs I/O and
// never mutates c.
//
// changed is false when the action was a no-op (RemoveOne/RemoveAll on an
// absent product). On error the returned cart equals c.
func Reduce(c Cart, a Action) (next Cart, changed bool, err error) {
	switch act := a.(type) {
	case AddItem:
		if strings.TrimSpace(act.Product.ID) == "" {
			return c, false, ErrInvalidProduct
		}
		next = c.Clone()
		if i := next.indexOf(act.Product.ID); i >= 0 {
			next.Items[i].Qty++
		} else {
			next.Items = append(next.Items, LineItem{Product: act.Product, Qty: 1})
		}
		return next, true, nil

	case RemoveOne:
		i := c.indexOf(act.Product.ID)
		if i < 0 {
			return c, false, nil
		}
		next = c.Clone()
		if next.Items[i].Qty <= 1 {
			next.Items = removeAt(next.Items, i)
		} else {
			next.Items[i].Qty--
		}
		return next, true, nil

	case RemoveAll:
		i := c.indexOf(act.Product.ID)
		if i < 0 {
			return c, false, nil
		}
		next = c.Clone()
		next.Items = removeAt(next.Items, i)
		return next, true, nil

	case Load:
		loaded := Cart{Items: cloneItems(act.Items)}
		if err := loaded.Validate(); err != nil {
			return c, false, err
		}
		return loaded, true, nil

	case Clear:
		return Cart{Items: []LineItem{}}, len(c.Items) > 0, nil

	default:
		return c, false, ErrUnknownAction
	}
}

func removeAt(items []LineItem, i int) []LineItem {
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
