package domain

import "time"

type OrderItem struct {
	ProductID       string
	SKU             string
	Name            string
	Qty             int
	PriceAtPurchase float64
}

// Order is an immutable snapshot of a successful checkout. Prices are the
// ones seen at purchase time, not re-read after the stock decrement.
type Order struct {
	ID        string
	SessionID string // empty for anonymous checkouts
	Items     []OrderItem
	Total     float64
	CreatedAt time.Time
}

// CheckoutItem is one requested line in a checkout call.
type CheckoutItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}
