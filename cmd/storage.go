package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense/memory"
	"github.com/frahmantamala/expense-tracker/internal/expense/mongostore"
	expensePostgres "github.com/frahmantamala/expense-tracker/internal/expense/postgres"
	"github.com/frahmantamala/expense-tracker/internal/transport/rest"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// storage is the expense store selected by database.driver together with
// what the health check and shutdown need from it.
type storage struct {
	Repo   expense.RepositoryAPI
	Health rest.Pinger
	Close  func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg internal.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	switch cfg.Driver {
	case internal.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case internal.DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	case internal.DriverMongo:
		return openMongo(ctx, cfg, logger)
	default:
		logger.Warn("using in-memory expense store; data is lost on restart")
		return &storage{
			Repo:   memory.NewExpenseRepository(),
			Health: rest.PingFunc(func(context.Context) error { return nil }),
			Close:  func(context.Context) error { return nil },
		}, nil
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	}
}

func openPostgres(ctx context.Context, cfg internal.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	db, err := initDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := migrateUp(ctx, db.DB, internal.DriverPostgres); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), gormConfig())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	logger.Info("connected to postgres", "max_open_conns", cfg.MaxOpenConns)
	return &storage{
		Repo:   expensePostgres.NewExpenseRepository(gdb),
		Health: db,
		Close:  func(context.Context) error { return db.Close() },
	}, nil
}

func openSQLite(ctx context.Context, cfg internal.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	gdb, err := gorm.Open(sqlite.Open(cfg.GetDSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// sqlite serialises writers anyway; one connection also keeps :memory: consistent
	sqlDB.SetMaxOpenConns(1)

	if cfg.AutoMigrate {
		if err := migrateUp(ctx, sqlDB, internal.DriverSQLite); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	logger.Info("opened sqlite database", "source", cfg.GetDSN())
	return &storage{
		Repo:   expensePostgres.NewExpenseRepository(gdb),
		Health: sqlDB,
		Close:  func(context.Context) error { return sqlDB.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg internal.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	client, err := mongostore.ConnectToMongoDB(ctx, cfg.GetDSN(), logger)
	if err != nil {
		return nil, err
	}

	coll := client.Database(cfg.Name).Collection(mongostore.ExpensesCollection)
	// the unique key index backs idempotency, so it is ensured regardless of auto_migrate
	if err := mongostore.EnsureIndexes(ctx, coll); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &storage{
		Repo: mongostore.NewExpenseRepository(coll),
		Health: rest.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}),
		Close: client.Disconnect,
	}, nil
}

// initDB opens the postgres pool through sqlx and the pgx stdlib driver
func initDB(ctx context.Context, cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	db, err := sqlx.ConnectContext(ctx, driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

var _ rest.Pinger = (*sql.DB)(nil)
