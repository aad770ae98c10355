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

	"github.com/frahmantamala/budget-tracker/api"
	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/auth"
	"github.com/frahmantamala/budget-tracker/internal/budget"
	budgetPostgres "github.com/frahmantamala/budget-tracker/internal/budget/postgres"
	"github.com/frahmantamala/budget-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/budget-tracker/internal/category/postgres"
	"github.com/frahmantamala/budget-tracker/internal/core/events"
	"github.com/frahmantamala/budget-tracker/internal/dashboard"
	"github.com/frahmantamala/budget-tracker/internal/export"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	goalPostgres "github.com/frahmantamala/budget-tracker/internal/goal/postgres"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
	"github.com/frahmantamala/budget-tracker/internal/storage"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	transactionPostgres "github.com/frahmantamala/budget-tracker/internal/transaction/postgres"
	"github.com/frahmantamala/budget-tracker/internal/transport"
	"github.com/frahmantamala/budget-tracker/internal/transport/rest"
	"github.com/frahmantamala/budget-tracker/internal/transport/swagger"
	"github.com/frahmantamala/budget-tracker/internal/user"
	"github.com/frahmantamala/budget-tracker/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *storage.DB
	Bus      *events.EventBus
	Cache    *querycache.Cache
	Router   *chi.Mux
	Health   *rest.HealthHandler
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go sweepCache(ctx, deps.Cache, deps.Config.Cache.TTL, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
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

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.Bus.Wait()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(deps.Router, rest.RouterConfig{
		AllowedOrigins: deps.Config.Server.Origins(),
		OpenAPI:        api.OpenAPI,
	}, deps.Health, deps.Handlers, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.L()

	if _, err := swagger.Load(context.Background(), api.OpenAPI); err != nil {
		return nil, err
	}

	db, err := storage.Open(config.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}

	bus := events.NewEventBus(log)
	cache := querycache.New(config.Cache.MaxEntries, config.Cache.TTL)
	querycache.NewInvalidator(cache, log).Register(bus)

	clock := internal.Clock(internal.SystemClock)
	base := transport.NewBaseHandler(log)

	transactionService := transaction.NewService(transactionPostgres.NewTransactionRepository(db.Gorm), bus, cache, log)
	categoryService := category.NewService(categoryPostgres.NewCategoryRepository(db.Gorm), bus, cache, log)
	budgetService := budget.NewService(budgetPostgres.NewBudgetRepository(db.Gorm), transactionService, bus, cache, clock, log)
	goalService := goal.NewService(goalPostgres.NewGoalRepository(db.Gorm), bus, cache, log)
	dashboardService := dashboard.NewService(transactionService, budgetService, goalService, cache, clock, log)

	exportFormat, err := export.ParseFormat(config.Export.DefaultFormat, export.FormatCSV)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	handlers := rest.Handlers{
		Session:      auth.NewMiddleware(base, auth.NewVerifier(config.Auth)),
		Transactions: transaction.NewHandler(base, transactionService),
		Categories:   category.NewHandler(base, categoryService),
		Budgets:      budget.NewHandler(base, budgetService),
		Goals:        goal.NewHandler(base, goalService),
		Dashboard:    dashboard.NewHandler(base, dashboardService),
		Export:       export.NewHandler(base, export.NewReader(db.SQL), exportFormat, clock),
		Users:        user.NewHandler(base),
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		Bus:      bus,
		Cache:    cache,
		Router:   chi.NewRouter(),
		Health:   rest.NewHealthHandler(db, db.Driver, cache),
		Handlers: handlers,
		Logger:   log,
	}, nil
}

// sweepCache drops expired snapshots so idle users do not pin memory.
func sweepCache(ctx context.Context, cache *querycache.Cache, ttl time.Duration, log *slog.Logger) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := cache.CleanExpired(); removed > 0 {
				log.Debug("expired cache entries removed", "count", removed)
			}
		}
	}
}
