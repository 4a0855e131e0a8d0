package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/port"
)

// DemandReader aggregates the demand signal for a product over a trailing
// window: quantities sold across order line items plus raw view counts.
type DemandReader struct {
	db     port.DatabaseRepository
	window time.Duration
}

func NewDemandReader(db port.DatabaseRepository, window time.Duration) *DemandReader {
	return &DemandReader{db: db, window: window}
}

// Read returns {0, 0} when no orders or views fall inside the window.
func (r *DemandReader) Read(ctx context.Context, productID string) (domain.Demand, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return domain.Demand{}, fmt.Errorf("%w: invalid product id %q", ErrInvalidArgument, productID)
	}
	since := time.Now().Add(-r.window)

	sales, err := r.db.SumOrderedQty(ctx, productID, since)
	if err != nil {
		return domain.Demand{}, fmt.Errorf("sum ordered qty: %w", err)
	}
	views, err := r.db.CountViews(ctx, productID, since)
	if err != nil {
		return domain.Demand{}, fmt.Errorf("count views: %w", err)
	}
	return domain.Demand{Sales: sales, Views: views}, nil
}
