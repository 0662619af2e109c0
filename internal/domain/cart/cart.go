// Package cart contains the storefront cart model mirrored from the backend.
package cart

// Product is the product snapshot embedded in a cart item.
// Price is a pointer because the backend may omit it for delisted products.
type Product struct {
	ID    string   `json:"_id"`
	Name  string   `json:"name"`
	Price *float64 `json:"price,omitempty"`
	Image string   `json:"image,omitempty"`
}

// Item is a single cart line.
type Item struct {
	ID       string  `json:"_id"`
	Quantity int     `json:"quantity"`
	Product  Product `json:"product"`
}

// Cart is the authenticated user's cart as returned by the backend.
type Cart struct {
	ID    string `json:"_id,omitempty"`
	Items []Item `json:"items"`
}

// Total returns the sum of price × quantity over all items.
// A nil cart totals 0 and a missing price counts as 0.
func (c *Cart) Total() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, it := range c.Items {
		if it.Product.Price == nil {
			continue
		}
		total += *it.Product.Price * float64(it.Quantity)
	}
	return total
}

// Count returns the sum of item quantities. A nil cart counts 0.
func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Price is a helper for building products with a known price.
func Price(v float64) *float64 { return &v }
