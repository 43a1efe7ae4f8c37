package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxItemQuantity is the largest quantity a cart or order line may hold. It is the
// range of the INTEGER quantity columns.
const MaxItemQuantity = math.MaxInt32

// CartItem is one product line of a cart. A cart never holds two lines for the same product.
type CartItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// Cart is the single mutable cart owned by a user
type Cart struct {
	UserID    uuid.UUID  `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Item returns the line for productID, if any
func (c *Cart) Item(productID uuid.UUID) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// PopulatedCartItem is a cart line joined with the current catalog data.
// Product is nil when the product no longer exists.
type PopulatedCartItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product"`
}

// PopulatedCart is a cart prepared for display
type PopulatedCart struct {
	UserID    uuid.UUID           `json:"userId"`
	Items     []PopulatedCartItem `json:"items"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}
