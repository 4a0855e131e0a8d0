package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/core/pricing"
	"github.com/rl1809/crypto-shop/internal/port"
)

const (
	defaultHistoryLimit = 40
	maxHistoryLimit     = 200
)

// HistoryPoint is one chart sample: a tick index and the price at that tick.
type HistoryPoint struct {
	Tick  int     `json:"tick"`
	Price float64 `json:"price"`
}

// RepriceResult reports a manual repricing: the demand signal used and the
// price transition.
type RepriceResult struct {
	Demand   domain.Demand `json:"demand"`
	OldPrice float64       `json:"oldPrice"`
	NewPrice float64       `json:"newPrice"`
}

type ProductService struct {
	db     port.DatabaseRepository
	demand *DemandReader
	rng    pricing.Rand
}

func NewProductService(db port.DatabaseRepository, demand *DemandReader, rng pricing.Rand) *ProductService {
	return &ProductService{db: db, demand: demand, rng: rng}
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.db.ListProducts(ctx)
}

// History returns up to min(limit, 200) price samples, oldest first. Products
// without stored history get a synthesized ±2% random walk seeded from the
// current price, so the shop chart is never empty.
func (s *ProductService) History(ctx context.Context, id string, limit int) ([]HistoryPoint, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	p, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	points, err := s.db.ListPricePoints(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list price points: %w", err)
	}
	if len(points) > 0 {
		// stored newest-first; serve oldest-first
		series := make([]HistoryPoint, len(points))
		for i, pp := range points {
			series[len(points)-1-i] = HistoryPoint{Price: pp.Price}
		}
		for i := range series {
			series[i].Tick = i
		}
		return series, nil
	}

	series := make([]HistoryPoint, 0, limit)
	v := p.CurrentPrice
	if v <= 0 {
		v = 100
	}
	for i := 0; i < limit; i++ {
		drift := (s.rng.Float64() - 0.5) * 0.04
		v = domain.Round2(v * (1 + drift))
		if v < 0.01 {
			v = 0.01
		}
		series = append(series, HistoryPoint{Tick: i, Price: v})
	}
	return series, nil
}

// Reprice runs one on-demand repricing for a single product and records the
// resulting price point. History trimming is left to the simulation pass.
func (s *ProductService) Reprice(ctx context.Context, id string) (*RepriceResult, error) {
	p, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.demand.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	newPrice := pricing.Next(*p, d, s.rng)
	if err := s.db.UpdateProductPrice(ctx, id, newPrice); err != nil {
		return nil, fmt.Errorf("update price: %w", err)
	}
	pp := domain.PricePoint{ProductID: id, Price: newPrice, CreatedAt: time.Now()}
	if err := s.db.InsertPricePoint(ctx, pp); err != nil {
		return nil, fmt.Errorf("insert price point: %w", err)
	}
	return &RepriceResult{Demand: d, OldPrice: p.CurrentPrice, NewPrice: newPrice}, nil
}

func (s *ProductService) loadProduct(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid product id %q", ErrInvalidArgument, id)
	}
	p, err := s.db.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}
