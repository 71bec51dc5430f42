package cart

import (
	"encoding/json"

	"storefront/internal/domain"
)

func encodeCart(c domain.Cart) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeCart returns nil for absent, truncated, or otherwise malformed
// snapshots; callers treat nil as "no snapshot". Decoded carts are
// sanitized so corrupt stored data can never violate the cart invariants:
// non-positive quantities are dropped, duplicate product ids collapse into
// the first occurrence, and aggregates are recomputed from scratch.
func decodeCart(raw string) *domain.Cart {
	if raw == "" {
		return nil
	}
	var c domain.Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil
	}
	items := make([]domain.CartItem, 0, len(c.Items))
	seen := make(map[int64]bool, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity <= 0 || seen[item.Product.ID] {
			continue
		}
		seen[item.Product.ID] = true
		items = append(items, item)
	}
	c.Items = items
	c.Recalculate()
	return &c
}

// cloneCart deep-copies a cart so mutation never reaches through to carts
// handed out earlier.
func cloneCart(c domain.Cart) domain.Cart {
	out := c
	out.Items = make([]domain.CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
