package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/crypto-shop/internal/config"
	"github.com/rl1809/crypto-shop/internal/core/pricing"
	"github.com/rl1809/crypto-shop/internal/core/service"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one repricing pass over all products",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()

		db, adapter, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		demand := service.NewDemandReader(adapter, cfg.DemandWindow)
		sim := service.NewSimulator(adapter, demand, pricing.GlobalRand{}, cfg.SimInterval, cfg.HistoryKeep)
		if err := sim.Init(ctx); err != nil {
			return err
		}
		tick, updated, err := sim.TickOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("tick %d complete: %d products updated\n", tick, updated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tickCmd)
}
