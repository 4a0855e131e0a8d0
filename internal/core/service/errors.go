package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks request-level validation failures; wrap it
	// with context via fmt.Errorf("%w: ...").
	ErrInvalidArgument = errors.New("invalid argument")

	ErrProductNotFound = errors.New("product not found")

	// ErrConcurrentStockChange reports a conditional decrement that lost the
	// race between the pre-check and the update.
	ErrConcurrentStockChange = errors.New("concurrent stock change")
)

// InsufficientStockError reports a checkout pre-check failure for one item.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (available %d)", e.ProductID, e.Available)
}
