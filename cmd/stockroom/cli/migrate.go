package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stockroom/stockroom/internal/platform/db"
	"github.com/stockroom/stockroom/internal/seed"
	"github.com/stockroom/stockroom/migrations"
)

// migrateCmd applies pending migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every embedded migration that is not yet recorded in
schema_migrations. Each file runs in its own transaction.

Examples:
  stockroom migrate           # Apply pending migrations
  stockroom migrate --seed    # Apply migrations, then load demo data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), migrateSeed)
	},
}

// seedCmd loads demo data
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data",
	Long: `Insert the administrator account, sample categories, suppliers and
products. Existing rows are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd.Context())
	},
}

var migrateSeed bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "Load demo data after migrating")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

func runMigrate(ctx context.Context, withSeed bool) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Println("No pending migrations")
	}
	for _, name := range applied {
		fmt.Printf("Applied %s\n", name)
	}
	if !withSeed {
		return nil
	}
	return seed.Run(ctx, pool, logger)
}

func runSeed(ctx context.Context) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := seed.Run(ctx, pool, logger); err != nil {
		return err
	}
	fmt.Printf("Seeded demo data (admin login: %s / %s)\n", seed.AdminEmail, seed.AdminPassword)
	return nil
}
