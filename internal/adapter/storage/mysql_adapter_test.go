package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/crypto-shop/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/cryptoshop?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func newTestAdapter(t *testing.T) (*MySQLAdapter, func()) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(context.Background()); err != nil {
		db.Close()
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return adapter, func() { db.Close() }
}

func seedProduct(t *testing.T, adapter *MySQLAdapter, stock int) domain.Product {
	t.Helper()
	p := domain.Product{
		ID:           uuid.NewString(),
		SKU:          "TEST-" + uuid.NewString()[:8],
		Name:         "Test Product",
		CurrentPrice: 100.00,
		MinPrice:     50.00,
		MaxPrice:     200.00,
		Stock:        stock,
	}
	if err := adapter.UpsertProduct(context.Background(), p); err != nil {
		t.Fatalf("UpsertProduct failed: %v", err)
	}
	return p
}

func TestUpsertProduct_KeepsIDOnReseed(t *testing.T) {
	adapter, cleanup := newTestAdapter(t)
	defer cleanup()
	ctx := context.Background()

	p := seedProduct(t, adapter, 10)

	// same SKU, new candidate id: row keeps the original id
	again := p
	again.ID = uuid.NewString()
	again.Stock = 25
	if err := adapter.UpsertProduct(ctx, again); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := adapter.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected product under original id")
	}
	if got.Stock != 25 {
		t.Errorf("expected refreshed stock 25, got %d", got.Stock)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	adapter, cleanup := newTestAdapter(t)
	defer cleanup()

	p, err := adapter.GetProduct(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Error("expected nil for nonexistent product")
	}
}

func TestDecrementStock_Conditional(t *testing.T) {
	adapter, cleanup := newTestAdapter(t)
	defer cleanup()
	ctx := context.Background()

	p := seedProduct(t, adapter, 5)

	ok, err := adapter.DecrementStock(ctx, p.ID, 3)
	if err != nil {
		t.Fatalf("DecrementStock failed: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement to apply")
	}

	// 2 left; asking for 3 must not apply
	ok, err = adapter.DecrementStock(ctx, p.ID, 3)
	if err != nil {
		t.Fatalf("DecrementStock failed: %v", err)
	}
	if ok {
		t.Fatal("expected decrement to be rejected")
	}

	got, _ := adapter.GetProduct(ctx, p.ID)
	if got.Stock != 2 {
		t.Errorf("expected stock 2, got %d", got.Stock)
	}

	if err := adapter.IncrementStock(ctx, p.ID, 3); err != nil {
		t.Fatalf("IncrementStock failed: %v", err)
	}
	got, _ = adapter.GetProduct(ctx, p.ID)
	if got.Stock != 5 {
		t.Errorf("expected stock restored to 5, got %d", got.Stock)
	}
}

func TestTrimPriceHistory_Idempotent(t *testing.T) {
	adapter, cleanup := newTestAdapter(t)
	defer cleanup()
	ctx := context.Background()

	p := seedProduct(t, adapter, 10)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		err := adapter.InsertPricePoint(ctx, domain.PricePoint{
			ProductID: p.ID,
			Price:     100 + float64(i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("InsertPricePoint failed: %v", err)
		}
	}

	deleted, err := adapter.TrimPriceHistory(ctx, p.ID, 4)
	if err != nil {
		t.Fatalf("TrimPriceHistory failed: %v", err)
	}
	if deleted != 6 {
		t.Errorf("expected 6 deletions, got %d", deleted)
	}

	// second call must be a no-op
	deleted, err = adapter.TrimPriceHistory(ctx, p.ID, 4)
	if err != nil {
		t.Fatalf("second TrimPriceHistory failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 deletions on repeat, got %d", deleted)
	}

	points, err := adapter.ListPricePoints(ctx, p.ID, 100)
	if err != nil {
		t.Fatalf("ListPricePoints failed: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 surviving points, got %d", len(points))
	}
	// newest first, and the newest prices survived
	if points[0].Price != 109 || points[3].Price != 106 {
		t.Errorf("unexpected surviving window: first %v last %v", points[0].Price, points[3].Price)
	}
}

func TestDemandAggregation(t *testing.T) {
	adapter, cleanup := newTestAdapter(t)
	defer cleanup()
	ctx := context.Background()

	p := seedProduct(t, adapter, 10)
	since := time.Now().Add(-time.Hour)

	order := domain.Order{
		ID:        uuid.NewString(),
		Total:     300,
		CreatedAt: time.Now(),
		Items: []domain.OrderItem{
			{ProductID: p.ID, SKU: p.SKU, Name: p.Name, Qty: 3, PriceAtPurchase: 100},
		},
	}
	if err := adapter.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	// one stale order outside the window
	stale := domain.Order{
		ID:        uuid.NewString(),
		Total:     500,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		Items: []domain.OrderItem{
			{ProductID: p.ID, SKU: p.SKU, Name: p.Name, Qty: 5, PriceAtPurchase: 100},
		},
	}
	if err := adapter.CreateOrder(ctx, stale); err != nil {
		t.Fatalf("CreateOrder (stale) failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		err := adapter.InsertView(ctx, domain.View{ProductID: p.ID, CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("InsertView failed: %v", err)
		}
	}

	sales, err := adapter.SumOrderedQty(ctx, p.ID, since)
	if err != nil {
		t.Fatalf("SumOrderedQty failed: %v", err)
	}
	if sales != 3 {
		t.Errorf("expected sales 3, got %d", sales)
	}

	views, err := adapter.CountViews(ctx, p.ID, since)
	if err != nil {
		t.Fatalf("CountViews failed: %v", err)
	}
	if views != 2 {
		t.Errorf("expected views 2, got %d", views)
	}
}

func TestTickPersistence(t *testing.T) {
	adapter, cleanup := newTestAdapter(t)
	defer cleanup()
	ctx := context.Background()

	last, err := adapter.LastTickNumber(ctx)
	if err != nil {
		t.Fatalf("LastTickNumber failed: %v", err)
	}

	next := domain.Tick{Number: last + 1, RanAt: time.Now(), Updated: 4}
	if err := adapter.InsertTick(ctx, next); err != nil {
		t.Fatalf("InsertTick failed: %v", err)
	}

	got, err := adapter.LastTickNumber(ctx)
	if err != nil {
		t.Fatalf("LastTickNumber failed: %v", err)
	}
	if got != next.Number {
		t.Errorf("expected last tick %d, got %d", next.Number, got)
	}

	// tick numbers are unique
	if err := adapter.InsertTick(ctx, next); err == nil {
		t.Error("expected duplicate tick number to fail")
	}
}
