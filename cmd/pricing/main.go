// Storefront pricing - prices carts against the promotional offer catalog.
// Serves REST and MCP, stores carts in Redis and places orders into Postgres.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-pricing/internal/cartstore"
	"storefront-pricing/internal/catalog"
	"storefront-pricing/internal/clientinfo"
	"storefront-pricing/internal/config"
	"storefront-pricing/internal/handler"
	"storefront-pricing/internal/middleware"
	"storefront-pricing/internal/notify"
	"storefront-pricing/internal/orders"
	"storefront-pricing/internal/pricing"
	"storefront-pricing/internal/summary"
	"storefront-pricing/internal/transport"
)

// catalogWarmup bounds the initial offer load before the server starts listening.
const catalogWarmup = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("service_id", cfg.ServiceID),
		slog.String("environment", cfg.Environment),
		slog.Bool("order_events", len(cfg.KafkaBrokers) > 0),
		slog.Bool("order_notifications", cfg.Secrets.NotifyWebhookURL != ""),
	)

	db, err := catalog.Open(ctx, cfg.Secrets.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	store := catalog.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating catalog: %w", err)
	}
	orderRepo := orders.NewPostgresRepository(db)
	if err := orderRepo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating orders: %w", err)
	}

	snapshot := startCatalog(ctx, cfg, store, logger)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Secrets.RedisPassword,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}

	orderService, closeOrders, err := newOrderService(cfg, orderRepo, rdb, logger)
	if err != nil {
		return err
	}
	defer closeOrders()

	gate, err := clientinfo.NewGate(cfg.MinClientVersions)
	if err != nil {
		return fmt.Errorf("configuring client gate: %w", err)
	}

	h := handler.New(handler.Deps{
		Offers:          snapshot,
		Products:        store,
		Carts:           cartstore.New(rdb, cfg.CartTTL),
		Orders:          orderService,
		Engine:          &pricing.Engine{TieBreakByID: cfg.TieBreakByID},
		BaseDeliveryFee: cfg.BaseDeliveryFee,
	}, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request ID → logging → client info → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		clientinfo.Middleware(gate, logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		logger.Info("shutdown signal received")

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// startCatalog loads the offer snapshot and keeps it fresh from LISTEN/NOTIFY
// and polling. A failed first load is not fatal: /health reports it and pricing
// returns 503 until a refresh succeeds.
func startCatalog(ctx context.Context, cfg *config.Config, store *catalog.PostgresStore, logger *slog.Logger) *catalog.Snapshot {
	snapshot := catalog.NewSnapshot(store, logger)

	warmCtx, cancel := context.WithTimeout(ctx, catalogWarmup)
	defer cancel()
	if err := snapshot.Refresh(warmCtx); err != nil {
		logger.Warn("initial offer catalog load failed", slog.String("error", err.Error()))
	}

	var changes <-chan struct{}
	listener, err := catalog.NewListener(cfg.Secrets.DatabaseURL, logger)
	if err != nil {
		logger.Warn("catalog change notifications disabled, polling only",
			slog.String("error", err.Error()),
			slog.Duration("interval", cfg.CatalogRefreshInterval))
	} else {
		changes = listener.Changes()
		go listener.Run(ctx)
	}

	go snapshot.Run(ctx, changes, cfg.CatalogRefreshInterval)
	return snapshot
}

// newOrderService wires idempotency, event publishing and notifications.
// The returned func releases the Kafka writer.
func newOrderService(cfg *config.Config, repo *orders.PostgresRepository, rdb *redis.Client, logger *slog.Logger) (*orders.Service, func(), error) {
	opts := []orders.Option{
		orders.WithSummaryOptions(summary.Options{Currency: cfg.Currency}),
	}

	closeFn := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := orders.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderTopic)
		opts = append(opts, orders.WithPublisher(publisher))
		closeFn = func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("closing kafka writer", slog.String("error", err.Error()))
			}
		}
	}

	if hook := cfg.Secrets.NotifyWebhookURL; hook != "" {
		var rt http.RoundTripper
		if cfg.NotifyBrowserTLS {
			fp, err := transport.ParseFingerprint(cfg.NotifyTLSFingerprint)
			if err != nil {
				return nil, nil, fmt.Errorf("configuring notify transport: %w", err)
			}
			rt = transport.NewBrowserTransport(fp, 10*time.Second)
		}
		opts = append(opts, orders.WithNotifier(notify.NewWebhook(hook, rt)))
	}

	idem := orders.NewRedisIdempotency(rdb, cfg.IdempotencyTTL)
	return orders.NewService(repo, idem, logger, opts...), closeFn, nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
