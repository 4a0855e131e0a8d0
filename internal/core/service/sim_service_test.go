package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/port/mocks"
)

// fixedRand pins the drift factor; 0.5 draws a drift of exactly 1.0.
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func newTestSimulator(db *mocks.DB) *Simulator {
	demand := NewDemandReader(db, time.Hour)
	return NewSimulator(db, demand, fixedRand{v: 0.5}, 10*time.Millisecond, 300)
}

func seedSimDB() *mocks.DB {
	db := mocks.NewDB()
	db.AddProduct(domain.Product{ID: pid1, SKU: "CR-001", Name: "JugoCoin", CurrentPrice: 199.99, MinPrice: 120, MaxPrice: 800, Stock: 500})
	db.AddProduct(domain.Product{ID: pid2, SKU: "CR-002", Name: "Rotom", CurrentPrice: 649.49, MinPrice: 350, MaxPrice: 2500, Stock: 300})
	return db
}

func TestSimulator_InitResumesTickCounter(t *testing.T) {
	db := seedSimDB()
	db.LastTick = 41
	sim := newTestSimulator(db)
	require.NoError(t, sim.Init(context.Background()))

	tick, updated, err := sim.TickOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), tick)
	assert.Equal(t, 2, updated)
	require.Len(t, db.Ticks, 1)
	assert.Equal(t, int64(42), db.Ticks[0].Number)
	assert.Equal(t, 2, db.Ticks[0].Updated)
}

func TestSimulator_TickUpdatesEveryProduct(t *testing.T) {
	db := seedSimDB()
	sim := newTestSimulator(db)
	require.NoError(t, sim.Init(context.Background()))

	_, updated, err := sim.TickOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	// one price point per product, prices inside bounds
	assert.Len(t, db.PricePoints, 2)
	for _, id := range []string{pid1, pid2} {
		p, _ := db.GetProduct(context.Background(), id)
		assert.GreaterOrEqual(t, p.CurrentPrice, p.MinPrice)
		assert.LessOrEqual(t, p.CurrentPrice, p.MaxPrice)
	}
}

func TestSimulator_StateTransitions(t *testing.T) {
	sim := newTestSimulator(seedSimDB())

	status, _ := sim.State()
	assert.Equal(t, SimStatusPaused, status)

	sim.Start()
	status, _ = sim.State()
	assert.Equal(t, SimStatusRunning, status)

	sim.Start() // no-op while running
	status, _ = sim.State()
	assert.Equal(t, SimStatusRunning, status)

	sim.Pause()
	status, _ = sim.State()
	assert.Equal(t, SimStatusPaused, status)

	sim.Pause() // no-op while paused
	status, _ = sim.State()
	assert.Equal(t, SimStatusPaused, status)
}

func TestSimulator_TickOnceWorksWhilePaused(t *testing.T) {
	db := seedSimDB()
	sim := newTestSimulator(db)
	require.NoError(t, sim.Init(context.Background()))

	status, _ := sim.State()
	require.Equal(t, SimStatusPaused, status)

	tick, updated, err := sim.TickOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), tick)
	assert.Equal(t, 2, updated)
}

func TestSimulator_ProductFailureSkipsNotAborts(t *testing.T) {
	db := seedSimDB()
	sim := newTestSimulator(db)
	require.NoError(t, sim.Init(context.Background()))

	db.SetErr("UpdateProductPrice", errors.New("write failed"))
	tick, updated, err := sim.TickOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), tick)
	assert.Equal(t, 0, updated)
	// the tick record is still written with the real count
	require.Len(t, db.Ticks, 1)
	assert.Equal(t, 0, db.Ticks[0].Updated)
}

func TestSimulator_ListFailureFailsTickWithoutIncrement(t *testing.T) {
	db := seedSimDB()
	sim := newTestSimulator(db)
	require.NoError(t, sim.Init(context.Background()))

	db.SetErr("ListProducts", errors.New("storage unavailable"))
	_, _, err := sim.TickOnce(context.Background())
	require.Error(t, err)

	db.SetErr("ListProducts", nil)
	tick, _, err := sim.TickOnce(context.Background())
	require.NoError(t, err)
	// the failed pass must not have consumed a tick number
	assert.Equal(t, int64(1), tick)
}

func TestSimulator_FailingTickDoesNotStopTimer(t *testing.T) {
	db := seedSimDB()
	sim := newTestSimulator(db)
	require.NoError(t, sim.Init(context.Background()))

	db.SetErr("ListProducts", errors.New("storage unavailable"))
	sim.Start()
	defer sim.Pause()

	// let a few ticks fail, then recover
	time.Sleep(50 * time.Millisecond)
	db.SetErr("ListProducts", nil)

	deadline := time.After(2 * time.Second)
	for {
		_, tick := sim.State()
		if tick >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("simulation never recovered after failing ticks")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSimulator_TrimKeepsRetention(t *testing.T) {
	db := mocks.NewDB()
	db.AddProduct(domain.Product{ID: pid1, SKU: "CR-001", Name: "JugoCoin", CurrentPrice: 100, MinPrice: 50, MaxPrice: 200, Stock: 100})
	demand := NewDemandReader(db, time.Hour)
	sim := NewSimulator(db, demand, fixedRand{v: 0.5}, time.Second, 3)
	require.NoError(t, sim.Init(context.Background()))

	for i := 0; i < 5; i++ {
		_, _, err := sim.TickOnce(context.Background())
		require.NoError(t, err)
	}
	points, err := db.ListPricePoints(context.Background(), pid1, 100)
	require.NoError(t, err)
	assert.Len(t, points, 3)
}
