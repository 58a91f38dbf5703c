package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/expense-tracker/api"
	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/notify"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/transport/rest"
	"github.com/frahmantamala/expense-tracker/internal/transport/swagger"
	"github.com/frahmantamala/expense-tracker/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

// Dependencies is everything the server and the seed command share.
type Dependencies struct {
	Config   *internal.Config
	Storage  *storage
	EventBus *events.EventBus
	AMQP     *notify.Client
	Expenses *expense.Service
	Logger   *slog.Logger
}

func (d *Dependencies) Close(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := d.EventBus.Drain(drainCtx); err != nil {
		d.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	if d.AMQP != nil {
		if err := d.AMQP.Close(); err != nil {
			d.Logger.Error("AMQP close error", "error", err)
		}
	}
	if err := d.Storage.Close(ctx); err != nil {
		d.Logger.Error("storage close error", "error", err)
	}
}

func startHTTPServer() error {
	ctx := context.Background()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	if _, err := swagger.Load(ctx, api.OpenAPISpec); err != nil {
		deps.Close(ctx)
		return err
	}

	router := chi.NewRouter()
	setupRoutes(router, deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Close(ctx)
	deps.Logger.Info("Server stopped")
	return serveErr
}

func setupRoutes(router *chi.Mux, deps *Dependencies) {
	base := transport.NewBaseHandler(deps.Logger)
	categoryService := category.NewService(deps.Config.Categories, deps.Expenses, deps.Logger)

	rest.RegisterAllRoutes(router, rest.Routes{
		Expense:        expense.NewHandler(base, deps.Expenses),
		Category:       category.NewHandler(base, categoryService),
		Health:         rest.NewHealthHandler(deps.Config.Database.Driver, deps.Storage.Health),
		AllowedOrigins: deps.Config.Server.Origins(),
		RequestTimeout: deps.Config.Server.RequestTimeout,
		OpenAPISpec:    api.OpenAPISpec,
	}, deps.Logger)
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	store, err := openStorage(ctx, config.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	bus := events.NewEventBus(log)

	var amqpClient *notify.Client
	var publisher notify.Publisher
	if config.Messaging.Enabled() {
		amqpClient, err = notify.NewClient(config.Messaging.AMQPURL, config.Messaging.Exchange, config.Messaging.Queue, log)
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		publisher = amqpClient
	}
	notify.Register(bus, log, publisher)

	service := expense.NewService(store.Repo, log, expense.WithEventPublisher(bus))

	return &Dependencies{
		Config:   config,
		Storage:  store,
		EventBus: bus,
		AMQP:     amqpClient,
		Expenses: service,
		Logger:   log,
	}, nil
}
