// Stress harness: fires concurrent single-item checkouts at one product and
// verifies the stock delta equals exactly the successful checkouts' worth.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/crypto-shop/internal/adapter/storage"
	"github.com/rl1809/crypto-shop/internal/config"
	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	// Seed a dedicated product for this run
	productID := uuid.NewString()
	err = adapter.UpsertProduct(ctx, domain.Product{
		ID:           productID,
		SKU:          "STRESS-" + productID[:8],
		Name:         "Stress Item",
		CurrentPrice: 100.00,
		MinPrice:     50.00,
		MaxPrice:     200.00,
		Stock:        initialStock,
	})
	if err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	checkout := service.NewCheckoutService(adapter)

	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, err := checkout.Checkout(ctx, fmt.Sprintf("session-%d", userID), []domain.CheckoutItem{
				{ProductID: productID, Qty: 1},
			})
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	p, err := adapter.GetProduct(ctx, productID)
	if err != nil || p == nil {
		log.Fatalf("failed to re-read product: %v", err)
	}

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Remaining Stock:  %d\n", p.Stock)
	fmt.Printf("Elapsed:          %s\n", elapsed)

	if int(success) != initialStock || p.Stock != 0 {
		fmt.Println("RESULT: FAIL (oversold or undersold)")
		return
	}
	fmt.Println("RESULT: OK (no oversell, no lost stock)")
}
