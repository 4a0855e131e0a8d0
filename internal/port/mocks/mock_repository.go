// Package mocks provides in-memory implementations of the storage ports for
// unit tests.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/crypto-shop/internal/core/domain"
)

// DB is an in-memory DatabaseRepository. Error injection is keyed by method
// name via SetErr; FailDecrement forces a conditional decrement to report
// not-applied for specific products, simulating a lost race.
type DB struct {
	Mu            sync.Mutex
	Products      map[string]*domain.Product
	PricePoints   []domain.PricePoint
	Orders        []domain.Order
	Views         []domain.View
	Ticks         []domain.Tick
	LastTick      int64
	Errs          map[string]error
	FailDecrement map[string]bool
}

func NewDB() *DB {
	return &DB{
		Products:      make(map[string]*domain.Product),
		Errs:          make(map[string]error),
		FailDecrement: make(map[string]bool),
	}
}

func (m *DB) AddProduct(p domain.Product) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	cp := p
	m.Products[p.ID] = &cp
}

func (m *DB) StockOf(id string) int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Products[id].Stock
}

func (m *DB) SetErr(method string, err error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err == nil {
		delete(m.Errs, method)
		return
	}
	m.Errs[method] = err
}

func (m *DB) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["ListProducts"]; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(m.Products))
	for _, p := range m.Products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *DB) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["GetProduct"]; err != nil {
		return nil, err
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *DB) GetProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["GetProducts"]; err != nil {
		return nil, err
	}
	var out []domain.Product
	seen := make(map[string]bool)
	for _, id := range ids {
		if p, ok := m.Products[id]; ok && !seen[id] {
			out = append(out, *p)
			seen[id] = true
		}
	}
	return out, nil
}

func (m *DB) UpsertProduct(ctx context.Context, p domain.Product) error {
	m.AddProduct(p)
	return nil
}

func (m *DB) UpdateProductPrice(ctx context.Context, id string, price float64) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["UpdateProductPrice"]; err != nil {
		return err
	}
	if p, ok := m.Products[id]; ok {
		p.CurrentPrice = price
	}
	return nil
}

func (m *DB) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["DecrementStock"]; err != nil {
		return false, err
	}
	if m.FailDecrement[id] {
		return false, nil
	}
	p, ok := m.Products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (m *DB) IncrementStock(ctx context.Context, id string, qty int) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["IncrementStock"]; err != nil {
		return err
	}
	if p, ok := m.Products[id]; ok {
		p.Stock += qty
	}
	return nil
}

func (m *DB) InsertPricePoint(ctx context.Context, pp domain.PricePoint) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["InsertPricePoint"]; err != nil {
		return err
	}
	pp.ID = int64(len(m.PricePoints) + 1)
	m.PricePoints = append(m.PricePoints, pp)
	return nil
}

func (m *DB) ListPricePoints(ctx context.Context, productID string, limit int) ([]domain.PricePoint, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["ListPricePoints"]; err != nil {
		return nil, err
	}
	// newest first; points are appended chronologically
	var out []domain.PricePoint
	for i := len(m.PricePoints) - 1; i >= 0 && len(out) < limit; i-- {
		if m.PricePoints[i].ProductID == productID {
			out = append(out, m.PricePoints[i])
		}
	}
	return out, nil
}

func (m *DB) TrimPriceHistory(ctx context.Context, productID string, keep int) (int64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["TrimPriceHistory"]; err != nil {
		return 0, err
	}
	var mine, rest []domain.PricePoint
	for _, pp := range m.PricePoints {
		if pp.ProductID == productID {
			mine = append(mine, pp)
		} else {
			rest = append(rest, pp)
		}
	}
	if len(mine) <= keep {
		return 0, nil
	}
	deleted := int64(len(mine) - keep)
	m.PricePoints = append(rest, mine[len(mine)-keep:]...)
	return deleted, nil
}

func (m *DB) CreateOrder(ctx context.Context, order domain.Order) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["CreateOrder"]; err != nil {
		return err
	}
	m.Orders = append(m.Orders, order)
	return nil
}

func (m *DB) SumOrderedQty(ctx context.Context, productID string, since time.Time) (int, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["SumOrderedQty"]; err != nil {
		return 0, err
	}
	total := 0
	for _, o := range m.Orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID {
				total += it.Qty
			}
		}
	}
	return total, nil
}

func (m *DB) InsertView(ctx context.Context, v domain.View) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["InsertView"]; err != nil {
		return err
	}
	m.Views = append(m.Views, v)
	return nil
}

func (m *DB) CountViews(ctx context.Context, productID string, since time.Time) (int, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["CountViews"]; err != nil {
		return 0, err
	}
	n := 0
	for _, v := range m.Views {
		if v.ProductID == productID && !v.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *DB) LastTickNumber(ctx context.Context) (int64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["LastTickNumber"]; err != nil {
		return 0, err
	}
	return m.LastTick, nil
}

func (m *DB) InsertTick(ctx context.Context, t domain.Tick) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs["InsertTick"]; err != nil {
		return err
	}
	m.Ticks = append(m.Ticks, t)
	if t.Number > m.LastTick {
		m.LastTick = t.Number
	}
	return nil
}

func (m *DB) Ping(ctx context.Context) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Errs["Ping"]
}

// Cache is an in-memory CacheRepository with real TTL behavior.
type Cache struct {
	Mu   sync.Mutex
	Seen map[string]time.Time
}

func NewCache() *Cache {
	return &Cache{Seen: make(map[string]time.Time)}
}

func (c *Cache) AllowView(ctx context.Context, key string, window time.Duration) (bool, error) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if exp, ok := c.Seen[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	c.Seen[key] = time.Now().Add(window)
	return true, nil
}

func (c *Cache) Ping(ctx context.Context) error { return nil }
