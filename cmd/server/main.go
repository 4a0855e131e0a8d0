package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/crypto-shop/internal/adapter/handler"
	"github.com/rl1809/crypto-shop/internal/adapter/storage"
	"github.com/rl1809/crypto-shop/internal/config"
	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/core/pricing"
	"github.com/rl1809/crypto-shop/internal/core/service"
	"github.com/rl1809/crypto-shop/internal/obs"
	"github.com/rl1809/crypto-shop/internal/port"
)

func main() {
	obs.Init(slog.LevelInfo)
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL. Storage unreachable at startup is fatal.
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	obs.Logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	obs.Logger.Info("connected to redis")

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	// Initialize services
	rng := pricing.GlobalRand{}
	demand := service.NewDemandReader(mysqlAdapter, cfg.DemandWindow)
	productService := service.NewProductService(mysqlAdapter, demand, rng)
	checkoutService := service.NewCheckoutService(mysqlAdapter)
	trackingService := service.NewTrackingService(mysqlAdapter, redisAdapter, cfg.ThrottleWindow, cfg.ViewQueueSize)

	sim := service.NewSimulator(mysqlAdapter, demand, rng, cfg.SimInterval, cfg.HistoryKeep)
	if err := sim.Init(ctx); err != nil {
		log.Fatalf("failed to init simulation: %v", err)
	}
	sim.Start()

	// Start view persistence workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.ViewWorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			viewWorkerLoop(id, trackingService.GetViewQueue(), mysqlAdapter)
		}(i)
	}
	obs.Logger.Info("started view workers", "count", cfg.ViewWorkerCount)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(
		productService, checkoutService, trackingService, sim,
		mysqlAdapter, redisAdapter,
		config.AppName, config.AppVersion,
	)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.NewRouter(httpHandler),
	}

	go func() {
		obs.Logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			obs.Logger.Error("http server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	obs.Logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	sim.Pause()

	// Close the view queue and wait for workers to drain it
	trackingService.Close()
	wg.Wait()

	rdb.Close()
	db.Close()
	obs.Logger.Info("shutdown complete")
}

func viewWorkerLoop(id int, queue <-chan domain.View, db port.DatabaseRepository) {
	for v := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.InsertView(ctx, v); err != nil {
			obs.Logger.Error("failed to save view",
				"worker", id, "product_id", v.ProductID, "error", err)
		}
		cancel()
	}
}
