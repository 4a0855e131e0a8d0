// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

const (
	AppName    = "crypto-shop"
	AppVersion = "0.1.0"
)

// Config holds configuration knobs for HTTP, storage, and the simulation.
type Config struct {
	HTTPAddr        string
	MySQLDSN        string
	RedisAddr       string
	SimInterval     time.Duration
	DemandWindow    time.Duration
	HistoryKeep     int
	ThrottleWindow  time.Duration
	ViewQueueSize   int
	ViewWorkerCount int
	ShutdownTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	return time.Duration(atoienv(key, defMs)) * time.Millisecond
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:        getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/cryptoshop?parseTime=true"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		SimInterval:     durenvms("SIM_INTERVAL_MS", 5000),
		DemandWindow:    time.Duration(atoienv("DEMAND_WINDOW_MINUTES", 60)) * time.Minute,
		HistoryKeep:     atoienv("HISTORY_KEEP", 300),
		ThrottleWindow:  durenvms("VIEW_THROTTLE_MS", 15000),
		ViewQueueSize:   atoienv("VIEW_QUEUE_SIZE", 1024),
		ViewWorkerCount: atoienv("VIEW_WORKER_COUNT", 4),
		ShutdownTimeout: durenvms("SHUTDOWN_TIMEOUT_MS", 5000),
	}
}
