package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/core/pricing"
	"github.com/rl1809/crypto-shop/internal/obs"
	"github.com/rl1809/crypto-shop/internal/port"
)

const (
	SimStatusRunning = "running"
	SimStatusPaused  = "paused"
)

// Simulator reprices every product once per tick. It starts paused; Start
// attaches a recurring timer and Pause detaches it. TickOnce works in either
// state, the timer only governs whether it is invoked automatically.
type Simulator struct {
	db       port.DatabaseRepository
	demand   *DemandReader
	rng      pricing.Rand
	interval time.Duration
	keep     int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	tick    int64

	// runMu serializes repricing passes; ticks never overlap even when the
	// timer and a manual step race.
	runMu sync.Mutex
}

func NewSimulator(db port.DatabaseRepository, demand *DemandReader, rng pricing.Rand, interval time.Duration, keep int) *Simulator {
	return &Simulator{db: db, demand: demand, rng: rng, interval: interval, keep: keep}
}

// Init resumes the tick counter from the highest persisted tick number so a
// restarted process never re-uses a number.
func (s *Simulator) Init(ctx context.Context) error {
	last, err := s.db.LastTickNumber(ctx)
	if err != nil {
		return fmt.Errorf("resume tick counter: %w", err)
	}
	s.mu.Lock()
	s.tick = last
	s.mu.Unlock()
	return nil
}

// State reports the current status and tick counter.
func (s *Simulator) State() (string, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return SimStatusRunning, s.tick
	}
	return SimStatusPaused, s.tick
}

// Start begins the recurring timer. No-op while already running.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop(ctx)
	obs.Logger.Info("sim started", "interval", s.interval.String())
}

// Pause cancels the recurring timer. No-op while already paused.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.cancel()
	s.cancel = nil
	obs.Logger.Info("sim paused")
}

func (s *Simulator) loop(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// a failed tick must not stop the timer
			if _, _, err := s.TickOnce(ctx); err != nil {
				obs.Logger.Error("sim tick failed", "error", err)
			}
		}
	}
}

// TickOnce performs one full repricing pass and returns the tick number and
// the count of products updated. A product whose update fails is skipped and
// logged; the pass continues with the rest and is not compensated.
func (s *Simulator) TickOnce(ctx context.Context) (int64, int, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	products, err := s.db.ListProducts(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list products: %w", err)
	}

	updated := 0
	for _, p := range products {
		if err := s.repriceOne(ctx, p); err != nil {
			obs.Logger.Error("reprice failed", "product_id", p.ID, "error", err)
			continue
		}
		updated++
	}

	s.mu.Lock()
	s.tick++
	number := s.tick
	s.mu.Unlock()

	tick := domain.Tick{Number: number, RanAt: time.Now(), Updated: updated}
	if err := s.db.InsertTick(ctx, tick); err != nil {
		return number, updated, fmt.Errorf("insert tick %d: %w", number, err)
	}
	return number, updated, nil
}

func (s *Simulator) repriceOne(ctx context.Context, p domain.Product) error {
	d, err := s.demand.Read(ctx, p.ID)
	if err != nil {
		return err
	}
	newPrice := pricing.Next(p, d, s.rng)

	if err := s.db.UpdateProductPrice(ctx, p.ID, newPrice); err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	pp := domain.PricePoint{ProductID: p.ID, Price: newPrice, CreatedAt: time.Now()}
	if err := s.db.InsertPricePoint(ctx, pp); err != nil {
		return fmt.Errorf("insert price point: %w", err)
	}
	if _, err := s.db.TrimPriceHistory(ctx, p.ID, s.keep); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}
