package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/port"
)

// TrackingService records product view events. A (viewer, product) pair is
// recorded at most once per throttle window; repeats inside the window are
// accepted without persisting. Accepted views go through a buffered queue
// drained by persistence workers, keeping the request path off the database.
type TrackingService struct {
	db        port.DatabaseRepository
	cache     port.CacheRepository
	window    time.Duration
	viewQueue chan domain.View
}

func NewTrackingService(db port.DatabaseRepository, cache port.CacheRepository, window time.Duration, queueSize int) *TrackingService {
	return &TrackingService{
		db:        db,
		cache:     cache,
		window:    window,
		viewQueue: make(chan domain.View, queueSize),
	}
}

// TrackView validates the product, applies the throttle, and enqueues a view
// event. throttled is true when the window suppressed persistence.
func (s *TrackingService) TrackView(ctx context.Context, productID, sessionID, ip, userAgent string) (throttled bool, err error) {
	if productID == "" {
		return false, fmt.Errorf("%w: productId required", ErrInvalidArgument)
	}
	if _, err := uuid.Parse(productID); err != nil {
		return false, fmt.Errorf("%w: invalid productId %q", ErrInvalidArgument, productID)
	}

	p, err := s.db.GetProduct(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return false, ErrProductNotFound
	}

	viewer := sessionID
	if viewer == "" {
		viewer = ip
	}
	if viewer == "" {
		viewer = "anon"
	}
	ok, err := s.cache.AllowView(ctx, fmt.Sprintf("view:%s::%s", viewer, productID), s.window)
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	if !ok {
		return true, nil
	}

	s.viewQueue <- domain.View{
		ProductID: productID,
		SessionID: sessionID,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
	}
	return false, nil
}

// GetViewQueue exposes the queue for persistence workers.
func (s *TrackingService) GetViewQueue() <-chan domain.View {
	return s.viewQueue
}

// Close stops accepting views and lets workers drain the queue.
func (s *TrackingService) Close() {
	close(s.viewQueue)
}
