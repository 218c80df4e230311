package main

import (
	"context"
	"database/sql"
	"eld-trip-service/internal/adapters/repositories"
	"eld-trip-service/internal/config"
	"eld-trip-service/internal/platform/db"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dbtool",
		Short:         "Manage the trip database schema and seed data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the trips, geocode_cache and route_cache tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB, _ *config.Config) error {
				log.Println("Initializing database schema...")
				if err := repositories.InitSchema(ctx, conn); err != nil {
					return fmt.Errorf("schema initialization failed: %w", err)
				}
				log.Println("Schema ready.")
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and insert pending trips from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")

			return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB, cfg *config.Config) error {
				if path == "" {
					path = cfg.SeedPath
				}

				if err := repositories.InitSchema(ctx, conn); err != nil {
					return fmt.Errorf("schema initialization failed: %w", err)
				}

				log.Printf("Seeding database from %s...", path)
				if err := repositories.SeedFromJSON(ctx, conn, path); err != nil {
					return fmt.Errorf("seeding failed: %w", err)
				}
				log.Println("Seeding complete.")
				return nil
			})
		},
	}

	cmd.Flags().StringP("file", "f", "", "Seed file (defaults to SEED_PATH)")

	return cmd
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB, *config.Config) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	conn, err := db.Open(cfg.DatabaseURL, db.DefaultPool())
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, conn, cfg)
}
