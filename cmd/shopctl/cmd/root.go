package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/rl1809/crypto-shop/internal/adapter/storage"
	"github.com/rl1809/crypto-shop/internal/config"
)

var mysqlDSN string

var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "Admin CLI for the crypto-shop service",
	Long:  "shopctl seeds the product catalog and drives repricing passes against the shop database.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mysqlDSN, "dsn", "", "MySQL DSN (defaults to MYSQL_DSN or the built-in local DSN)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB connects to MySQL and ensures the schema exists.
func openDB(ctx context.Context) (*sql.DB, *storage.MySQLAdapter, error) {
	dsn := mysqlDSN
	if dsn == "" {
		dsn = config.Load().MySQLDSN
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping mysql: %w", err)
	}
	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, adapter, nil
}
