package cart

// Merge reconciles the device cart with the account cart at login.
//
// For a product present on both sides the merged quantity is the maximum of
// the two, never the sum: a previous partial sync may already have copied
// one side into the other. Two devices that each added the same product
// while offline therefore collapse to the larger count.
//
// Local items keep their order and metadata; remote-only items follow in
// remote order.
func Merge(local, remote Cart) Cart {
	out := Cart{Items: make([]LineItem, 0, len(local.Items)+len(remote.Items))}
	taken := make(map[string]struct{}, len(local.Items))

	for _, it := range local.Items {
		if it.ID == "" || it.Qty <= 0 {
			continue
		}
		if _, dup := taken[it.ID]; dup {
			continue
		}
		if r, ok := remote.Get(it.ID); ok && r.Qty > it.Qty {
			it.Qty = r.Qty
		}
		out.Items = append(out.Items, it)
		taken[it.ID] = struct{}{}
	}

	for _, it := range remote.Items {
		if it.ID == "" || it.Qty <= 0 {
			continue
		}
		if _, ok := taken[it.ID]; ok {
			continue
		}
		out.Items = append(out.Items, it)
		taken[it.ID] = struct{}{}
	}

	return out
}
