package main

import (
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ledgerstream/ledgerstream/internal/adapters/memory"
	portssvc "github.com/ledgerstream/ledgerstream/internal/core/ports/services"
	"github.com/ledgerstream/ledgerstream/internal/core/services"
	"github.com/ledgerstream/ledgerstream/internal/events"
	"github.com/ledgerstream/ledgerstream/internal/handlers"
	"github.com/ledgerstream/ledgerstream/internal/middleware"
	"github.com/ledgerstream/ledgerstream/internal/platform/config"
	"github.com/ledgerstream/ledgerstream/internal/realtime"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Storage adapters: everything lives in memory behind the repository
	// ports, so a persistent backend can slot in without touching the
	// broadcast path.
	accountRepo := memory.NewAccountRepository()
	txnRepo := memory.NewTransactionRepository()

	// Event pipeline: ledger -> bus -> dispatcher -> subscribers.
	bus := events.NewBus(cfg.EventBusBuffer, logger)
	defer bus.Close()

	accountService := services.NewAccountService(accountRepo)
	ledgerService := services.NewLedgerService(accountRepo, txnRepo, bus)
	container := &portssvc.ServiceContainer{
		Account: accountService,
		Ledger:  ledgerService,
	}

	registry := realtime.NewRegistry(logger)
	dispatcher := realtime.NewDispatcher(bus.Subscribe(), registry, logger)
	go dispatcher.Run()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	limiterInstance := limiter.New(limitermemory.NewStore(), rate)

	handlers.RegisterValidations()
	handlers.RegisterRoutes(r, container, middleware.RateLimit(limiterInstance))

	wsHandler := realtime.NewHandler(registry, accountService, ledgerService, cfg.ClientSendBuffer, cfg.InitialSnapshotLimit, logger)
	wsHandler.RegisterRoutes(r)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
