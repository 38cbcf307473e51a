package domain

import "strings"

// CartItem is a client-owned cart line with a display snapshot of the product
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// Key identifies the cart line. The same product in another size or color is a separate line.
func (c CartItem) Key() string {
	return strings.Join([]string{c.ProductID, c.Size, c.Color}, ":")
}

// FavoriteItem is a favorited product with its display snapshot
type FavoriteItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Stock     int     `json:"stock"`
}
