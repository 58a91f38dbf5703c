package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/frahmantamala/expense-tracker/db"
	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/expense/mongostore"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations for the configured driver",
	}
	migrateRollback bool
	migrateStatus   bool
)

const migrationsTable = "schema_migrations"

// gooseDialects maps database.driver to the goose dialect name.
var gooseDialects = map[string]string{
	internal.DriverPostgres: "postgres",
	internal.DriverSQLite:   "sqlite3",
}

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().BoolVarP(&migrateStatus, "status", "s", false, "to print the applied and pending migrations")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.LoggerWrapper()

	switch cfg.Database.Driver {
	case internal.DriverMemory:
		log.Info("memory driver has no schema; nothing to migrate")
		return nil
	case internal.DriverMongo:
		client, err := mongostore.ConnectToMongoDB(ctx, cfg.Database.GetDSN(), log)
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)
		coll := client.Database(cfg.Database.Name).Collection(mongostore.ExpensesCollection)
		if err := mongostore.EnsureIndexes(ctx, coll); err != nil {
			return err
		}
		log.Info("mongo indexes ensured", "collection", mongostore.ExpensesCollection)
		return nil
	}

	sqlDB, err := openMigrationDB(cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	dir, err := prepareGoose(cfg.Database.Driver)
	if err != nil {
		return err
	}

	switch {
	case migrateStatus:
		return goose.StatusContext(ctx, sqlDB, dir)
	case migrateRollback:
		if err := goose.DownContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	default:
		if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	}

	log.Info("migration finished", "driver", cfg.Database.Driver, "rollback", migrateRollback)
	return nil
}

// openMigrationDB uses pure-Go drivers, so the migrate command runs in
// CGO-disabled builds too.
func openMigrationDB(cfg internal.DatabaseConfig) (*sql.DB, error) {
	driver := "pgx"
	if cfg.Driver == internal.DriverSQLite {
		driver = "sqlite"
	}

	sqlDB, err := sql.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("goose: failed to open DB: %w", err)
	}
	return sqlDB, nil
}

// prepareGoose points goose at the embedded migrations for driver and
// returns the directory to pass to it.
func prepareGoose(driver string) (string, error) {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return "", fmt.Errorf("no sql migrations for driver %q", driver)
	}

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName(migrationsTable)
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("goose dialect: %w", err)
	}
	return db.MigrationsDir(driver), nil
}

// migrateUp applies pending migrations on an open connection.
func migrateUp(ctx context.Context, sqlDB *sql.DB, driver string) error {
	dir, err := prepareGoose(driver)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
