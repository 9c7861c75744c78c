package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/database"
	"github.com/jonathan/interview-insights/internal/database/schema"
	"github.com/jonathan/interview-insights/internal/database/schema/migrations"
	"github.com/jonathan/interview-insights/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Long:  `Apply pending schema migrations for the configured store backend (STORE_BACKEND).`,
	RunE:  runMigrate,
}

var migrateBackend string

func init() {
	migrateCmd.Flags().StringVar(&migrateBackend, "backend", "", "Backend to migrate (postgres or clickhouse); defaults to STORE_BACKEND")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	backend := cfg.StoreBackend
	if migrateBackend != "" {
		backend = migrateBackend
	}

	ctx := cmd.Context()
	switch backend {
	case config.BackendClickHouse:
		chdb, err := database.New(ctx, database.Options{
			DSN:             cfg.ClickHouseDSN,
			MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
			MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
			Username:        cfg.ClickHouseUsername,
			Password:        cfg.ClickHousePassword,
			Database:        cfg.ClickHouseDatabase,
		}, log)
		if err != nil {
			return err
		}
		defer func() { _ = chdb.Close() }()

		applied, err := schema.NewMigrator(chdb.Conn(), log).Up(ctx, migrations.All)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d ClickHouse migrations %v\n", len(applied), applied)

	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		conn, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.Migrate(ctx); err != nil {
			return err
		}
		log.Info("Postgres schema is up to date")
		fmt.Fprintln(cmd.OutOrStdout(), "Postgres schema is up to date")

	case config.BackendFile:
		fmt.Fprintln(cmd.OutOrStdout(), "The file store has no schema to migrate")

	default:
		log.Error("Unknown backend", zap.String("backend", backend))
		return fmt.Errorf("unknown store backend %q", backend)
	}
	return nil
}
