package port

import (
	"context"
	"time"

	"github.com/rl1809/crypto-shop/internal/core/domain"
)

type DatabaseRepository interface {
	// ListProducts returns all products sorted by name.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// GetProduct returns a product by id, or nil if it does not exist.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// GetProducts returns the products matching ids; missing ids are simply
	// absent from the result.
	GetProducts(ctx context.Context, ids []string) ([]domain.Product, error)

	// UpsertProduct inserts a product or, when the SKU already exists,
	// refreshes its catalog fields.
	UpsertProduct(ctx context.Context, p domain.Product) error

	// UpdateProductPrice sets a product's current price.
	UpdateProductPrice(ctx context.Context, id string, price float64) error

	// DecrementStock decreases stock by qty only while stock >= qty, and
	// reports whether the update applied.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)

	// IncrementStock restores stock (rollback of a prior decrement).
	IncrementStock(ctx context.Context, id string, qty int) error

	// InsertPricePoint appends one price history sample.
	InsertPricePoint(ctx context.Context, pp domain.PricePoint) error

	// ListPricePoints returns up to limit samples for a product, newest first.
	ListPricePoints(ctx context.Context, productID string, limit int) ([]domain.PricePoint, error)

	// TrimPriceHistory deletes all but the most recent keep samples for a
	// product and returns the number of rows removed.
	TrimPriceHistory(ctx context.Context, productID string, keep int) (int64, error)

	// CreateOrder persists an order and its line items.
	CreateOrder(ctx context.Context, order domain.Order) error

	// SumOrderedQty totals quantities ordered for a product since the given time.
	SumOrderedQty(ctx context.Context, productID string, since time.Time) (int, error)

	// InsertView appends one view event.
	InsertView(ctx context.Context, v domain.View) error

	// CountViews counts view events for a product since the given time.
	CountViews(ctx context.Context, productID string, since time.Time) (int, error)

	// LastTickNumber returns the highest persisted tick number, or 0.
	LastTickNumber(ctx context.Context) (int64, error)

	// InsertTick appends one tick record.
	InsertTick(ctx context.Context, t domain.Tick) error

	// Ping reports storage reachability.
	Ping(ctx context.Context) error
}
