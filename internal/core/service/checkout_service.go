package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/obs"
	"github.com/rl1809/crypto-shop/internal/port"
)

type CheckoutService struct {
	db port.DatabaseRepository
}

func NewCheckoutService(db port.DatabaseRepository) *CheckoutService {
	return &CheckoutService{db: db}
}

// Checkout validates the cart, decrements stock per item with a conditional
// update, and persists an order snapshot carrying prices at purchase time.
//
// Each decrement applies only while stock >= qty. If one fails to apply,
// every decrement already made for this checkout is compensated by
// re-incrementing the same qty and the call fails with
// ErrConcurrentStockChange. Validation and the stock pre-check run before any
// mutation.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, items []domain.CheckoutItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items array required", ErrInvalidArgument)
	}
	for _, it := range items {
		if _, err := uuid.Parse(it.ProductID); err != nil {
			return nil, fmt.Errorf("%w: invalid productId %q", ErrInvalidArgument, it.ProductID)
		}
		if it.Qty < 1 {
			return nil, fmt.Errorf("%w: invalid qty for %s", ErrInvalidArgument, it.ProductID)
		}
	}

	// Snapshot the referenced products. Prices at purchase come from this
	// snapshot, not from a re-read after the decrements.
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	prods, err := s.db.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[string]domain.Product, len(prods))
	for _, p := range prods {
		byID[p.ID] = p
	}

	// Verify stock before mutating anything.
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if p.Stock < it.Qty {
			return nil, &InsufficientStockError{ProductID: it.ProductID, Available: p.Stock}
		}
	}

	// Conditionally decrement per item, tracking successes for rollback. A
	// concurrent checkout may have consumed stock since the pre-check; the
	// WHERE stock >= qty guard catches that.
	var decremented []domain.CheckoutItem
	for _, it := range items {
		ok, err := s.db.DecrementStock(ctx, it.ProductID, it.Qty)
		if err != nil || !ok {
			s.rollback(ctx, decremented)
			if err != nil {
				return nil, fmt.Errorf("decrement stock for %s: %w", it.ProductID, err)
			}
			return nil, ErrConcurrentStockChange
		}
		decremented = append(decremented, it)
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
	total := 0.0
	for _, it := range items {
		p := byID[it.ProductID]
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:       it.ProductID,
			SKU:             p.SKU,
			Name:            p.Name,
			Qty:             it.Qty,
			PriceAtPurchase: p.CurrentPrice,
		})
		total += float64(it.Qty) * p.CurrentPrice
	}
	order.Total = domain.Round2(total)

	if err := s.db.CreateOrder(ctx, order); err != nil {
		s.rollback(ctx, decremented)
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

func (s *CheckoutService) rollback(ctx context.Context, decremented []domain.CheckoutItem) {
	for _, it := range decremented {
		if err := s.db.IncrementStock(ctx, it.ProductID, it.Qty); err != nil {
			obs.Logger.Error("stock rollback failed",
				"product_id", it.ProductID, "qty", it.Qty, "error", err)
		}
	}
}
