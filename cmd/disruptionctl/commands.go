package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/config"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/dedup"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/logger"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/risk"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/snapshot"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/storage"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "disruptionctl",
		Short:        "Correlate supply disruptions with in-flight inventory",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return logger.Init("disruptionctl", logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd(), newSeedCmd(), newForgetCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	var disruptionsPath, inventoryPath, vendorsPath string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one correlation over local files and print the risk report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			disruptions, err := snapshot.ReadDisruptions(disruptionsPath)
			if err != nil {
				return err
			}

			files := snapshot.FileProvider{InventoryPath: inventoryPath, VendorsPath: vendorsPath}
			snap, err := snapshot.Load(cmd.Context(), files, files)
			if err != nil {
				return err
			}

			result := risk.NewEngine(logger.Named("engine")).Analyze(disruptions, snap.Inventory, snap.Vendors)

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			logger.Info("analysis complete",
				zap.Int("reports", len(result.Reports)),
				zap.Int("duplicates", result.Stats.Duplicates),
				zap.Int("escalations", result.Stats.Escalations),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&disruptionsPath, "disruptions", "", "JSON file with one disruption or an array of them")
	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "JSON file with the inventory")
	cmd.Flags().StringVar(&vendorsPath, "vendors", "", "CSV or JSON file with the vendor directory")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	for _, name := range []string{"disruptions", "inventory", "vendors"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSeedCmd() *cobra.Command {
	var inventoryPath, vendorsPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load inventory and vendor files into Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			files := snapshot.FileProvider{InventoryPath: inventoryPath, VendorsPath: vendorsPath}
			snap, err := snapshot.Load(ctx, files, files)
			if err != nil {
				return err
			}

			pool, err := storage.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := storage.RunMigrations(ctx, pool, logger.Named("migrations")); err != nil {
				return err
			}

			repo := storage.NewRepository(pool)
			for _, v := range snap.Vendors {
				if strings.TrimSpace(v.VendorID) == "" {
					continue
				}
				if err := repo.UpsertVendor(ctx, v); err != nil {
					return err
				}
			}
			for _, s := range snap.Inventory {
				if err := repo.UpsertShipment(ctx, s); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d shipments and %d vendors\n", len(snap.Inventory), len(snap.Vendors))
			return nil
		},
	}

	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "JSON file with the inventory")
	cmd.Flags().StringVar(&vendorsPath, "vendors", "", "CSV or JSON file with the vendor directory")
	_ = cmd.MarkFlagRequired("inventory")
	_ = cmd.MarkFlagRequired("vendors")
	return cmd
}

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget-history",
		Short: "Clear the cross-run dedup history so every pair is reported again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rdb, err := dedup.NewClient(cmd.Context(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return err
			}
			defer rdb.Close()

			n, err := dedup.NewStore(rdb, cfg.DedupTTL).Forget(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d dedup keys\n", n)
			return nil
		},
	}
}
