package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/crypto-shop/internal/core/domain"
)

var seedFile string

// Catalog is the YAML seed file format.
type Catalog struct {
	Products []CatalogProduct `yaml:"products"`
}

type CatalogProduct struct {
	SKU   string  `yaml:"sku"`
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Stock int     `yaml:"stock"`
}

// defaultCatalog matches the demo shop's stock catalog.
var defaultCatalog = Catalog{Products: []CatalogProduct{
	{SKU: "CR-001", Name: "JugoCoin", Price: 199.99, Min: 120.00, Max: 800.00, Stock: 500},
	{SKU: "CR-002", Name: "Rotom", Price: 649.49, Min: 350.00, Max: 2500.00, Stock: 300},
	{SKU: "CR-003", Name: "Porygon", Price: 425.75, Min: 250.00, Max: 1800.00, Stock: 400},
	{SKU: "CR-004", Name: "Kassir", Price: 1150.00, Min: 600.00, Max: 6000.00, Stock: 200},
}}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the product catalog (idempotent, keyed by SKU)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		catalog := defaultCatalog
		if seedFile != "" {
			data, err := os.ReadFile(seedFile)
			if err != nil {
				return fmt.Errorf("read catalog file: %w", err)
			}
			catalog = Catalog{}
			if err := yaml.Unmarshal(data, &catalog); err != nil {
				return fmt.Errorf("parse catalog file: %w", err)
			}
		}
		for i, p := range catalog.Products {
			if p.SKU == "" || p.Name == "" {
				return fmt.Errorf("catalog entry %d: sku and name are required", i)
			}
			if p.Min > p.Price || p.Price > p.Max {
				return fmt.Errorf("catalog entry %s: price %v outside [%v, %v]", p.SKU, p.Price, p.Min, p.Max)
			}
		}

		db, adapter, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		for _, p := range catalog.Products {
			err := adapter.UpsertProduct(ctx, domain.Product{
				ID:           uuid.NewString(),
				SKU:          p.SKU,
				Name:         p.Name,
				CurrentPrice: p.Price,
				MinPrice:     p.Min,
				MaxPrice:     p.Max,
				Stock:        p.Stock,
			})
			if err != nil {
				return err
			}
		}
		fmt.Printf("seed complete: upserted %d products\n", len(catalog.Products))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML catalog file (defaults to the built-in catalog)")
	rootCmd.AddCommand(seedCmd)
}
