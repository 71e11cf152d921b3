package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/workforce-management/internal"
	"github.com/frahmantamala/workforce-management/internal/auth"
	authpg "github.com/frahmantamala/workforce-management/internal/auth/postgres"
	"github.com/frahmantamala/workforce-management/internal/core/events"
	"github.com/frahmantamala/workforce-management/internal/tenant"
	tenantpg "github.com/frahmantamala/workforce-management/internal/tenant/postgres"
	"github.com/frahmantamala/workforce-management/internal/transport/rest"
	"github.com/frahmantamala/workforce-management/internal/worktime"
	worktimepg "github.com/frahmantamala/workforce-management/internal/worktime/postgres"
	"github.com/frahmantamala/workforce-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
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
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger

	AuthHandler     *auth.Handler
	TenantHandler   *tenant.Handler
	TenantService   tenant.ServiceAPI
	WorktimeHandler *worktime.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.AuthHandler,
		deps.TenantHandler,
		deps.TenantService,
		deps.WorktimeHandler,
		deps.Config.Server.AllowedOrigins,
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
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
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	appLogger := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(appLogger)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authpg.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen)
	authHandler := auth.NewHandler(authService)

	tenantRepo := tenantpg.NewTenantRepository(gormDB)
	tenantService := tenant.NewService(tenantRepo, eventBus, appLogger)
	tenantHandler := tenant.NewHandler(tenantService)

	registry := worktime.NewRegistry(worktime.DefaultModels()...)
	entryRepo := worktimepg.NewTimeEntryRepository(gormDB)
	modelRepo := worktimepg.NewWorkTimeModelRepository(gormDB)
	worktimeService := worktime.NewService(entryRepo, modelRepo, registry, eventBus, appLogger)
	worktimeHandler := worktime.NewHandler(worktimeService)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := worktimeService.LoadPersistedModels(ctx); err != nil {
		appLogger.Warn("could not load persisted work time models", "error", err)
	}

	return &Dependencies{
		Config:          config,
		Logger:          appLogger,
		DB:              db,
		Router:          chi.NewRouter(),
		AuthHandler:     authHandler,
		TenantHandler:   tenantHandler,
		TenantService:   tenantService,
		WorktimeHandler: worktimeHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
