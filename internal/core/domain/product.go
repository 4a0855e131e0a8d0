package domain

import "time"

type Product struct {
	ID           string
	SKU          string
	Name         string
	CurrentPrice float64
	MinPrice     float64
	MaxPrice     float64
	Stock        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PricePoint is one historical price sample for a product, appended once per
// repricing and trimmed to the most recent N per product.
type PricePoint struct {
	ID        int64
	ProductID string
	Price     float64
	CreatedAt time.Time
}

// Demand is the aggregated demand signal for one product over a trailing
// window: total quantity sold and number of view events.
type Demand struct {
	Sales int `json:"sales"`
	Views int `json:"views"`
}
