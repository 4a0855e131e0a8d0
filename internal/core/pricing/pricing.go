// Package pricing implements the repricing formula used by the simulation.
package pricing

import (
	"math"

	"github.com/rl1809/crypto-shop/internal/core/domain"
)

// Rand yields uniform draws in [0, 1). *math/rand.Rand satisfies it; tests
// substitute a fixed source to pin the drift factor.
type Rand interface {
	Float64() float64
}

// Next computes the next price for a product from its stock level and demand
// signal. The result is always clamped to [MinPrice, MaxPrice] and rounded to
// 2 decimal places.
func Next(p domain.Product, d domain.Demand, rng Rand) float64 {
	// random drift, uniform in [0.95, 1.05]
	drift := 1 + (rng.Float64()-0.5)*0.10

	stockFactor := 1.0
	switch {
	case p.Stock < 50:
		stockFactor = 1.05
	case p.Stock > 500:
		stockFactor = 0.98
	}

	// conversion-based demand influence, capped at ±8%. Baseline is 5%
	// conversion; views == 0 is neutral. The ×2.0 scaling applies below
	// baseline as well.
	demandFactor := 1.0
	if d.Views > 0 {
		conv := math.Min(1, float64(d.Sales)/float64(d.Views))
		boost := (conv - 0.05) * 2.0
		demandFactor = 1 + math.Max(-0.08, math.Min(0.08, boost))
	}

	price := p.CurrentPrice * drift * stockFactor * demandFactor

	if price < p.MinPrice {
		price = p.MinPrice
	}
	if price > p.MaxPrice {
		price = p.MaxPrice
	}
	return domain.Round2(price)
}
