package domain

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart holds at most one item per product id. TotalItems and
// TotalAmountCents are derived from Items and recomputed after every
// mutation, never adjusted incrementally.
type Cart struct {
	Items            []CartItem `json:"items"`
	TotalItems       int        `json:"totalItems"`
	TotalAmountCents int64      `json:"totalAmountCents"`
}

// EmptyCart returns a cart with a non-nil, zero-length item slice so it
// encodes as {"items":[],...} like the frontend expects.
func EmptyCart() Cart {
	return Cart{Items: []CartItem{}}
}

// Recalculate rebuilds both aggregates from Items.
func (c *Cart) Recalculate() {
	c.TotalItems = 0
	c.TotalAmountCents = 0
	for _, item := range c.Items {
		c.TotalItems += item.Quantity
		c.TotalAmountCents += int64(item.Quantity) * item.Product.PriceCents
	}
}

// Find returns the index of the item for productID, or -1.
func (c *Cart) Find(productID int64) int {
	for i, item := range c.Items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}
