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

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/travel-backoffice/api"
	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/auth"
	"github.com/frahmantamala/travel-backoffice/internal/booking"
	"github.com/frahmantamala/travel-backoffice/internal/core/events"
	"github.com/frahmantamala/travel-backoffice/internal/customer"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
	"github.com/frahmantamala/travel-backoffice/internal/hotel"
	"github.com/frahmantamala/travel-backoffice/internal/itinerary"
	"github.com/frahmantamala/travel-backoffice/internal/notification"
	"github.com/frahmantamala/travel-backoffice/internal/payment"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	"github.com/frahmantamala/travel-backoffice/internal/transfer"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
	"github.com/frahmantamala/travel-backoffice/internal/transport/rest"
	"github.com/frahmantamala/travel-backoffice/internal/user"
	"github.com/frahmantamala/travel-backoffice/pkg/logger"
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
	Config     *internal.Config
	Identity   *identity
	Store      *datastore.Client
	EventBus   *events.EventBus
	Dispatcher *notification.Dispatcher
	Router     *chi.Mux
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

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

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

// close drains queued notifications before the connections they need go away.
func (d *Dependencies) close() {
	d.Dispatcher.Shutdown()
	d.Identity.Close()
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	if _, err := api.Load(ctx); err != nil {
		return nil, err
	}

	ident, err := buildIdentity(ctx, config, log)
	if err != nil {
		return nil, err
	}

	store := datastore.NewClient(datastore.Config{
		BaseURL:      config.Store.BaseURL,
		APIKey:       config.Store.APIKey,
		Timeout:      config.Store.RequestTimeout(),
		MaxRetries:   config.Store.MaxRetries,
		RetryBackoff: config.Store.RetryBackoff,
	}, log)

	receipts, err := initReceipts(ctx, config.Storage, log)
	if err != nil {
		ident.Close()
		return nil, err
	}

	eventBus := events.NewEventBus(log)
	notifications := notification.NewService(store, log)
	dispatcher := notification.NewDispatcher(notifications, notification.DispatcherConfig{
		Workers:    config.Notifications.Workers,
		QueueSize:  config.Notifications.QueueSize,
		JobTimeout: config.Store.RequestTimeout(),
	}, log)
	notification.NewEventHandler(dispatcher, log).RegisterEventHandlers(eventBus)

	base := transport.NewBaseHandler(log)
	tokens := auth.NewTokenIssuer(config.Security.SessionSecret, config.Security.AccessTokenDuration)

	health := rest.NewHealthHandler().
		Register("postgres", ident.DB.PingContext)
	if ident.Redis != nil {
		health.Register("redis", func(ctx context.Context) error { return ident.Redis.Ping(ctx).Err() })
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:        health,
		Tokens:        tokens,
		Guard:         ident.Guard,
		Auth:          auth.NewHandler(base, ident.Auth, tokens, ident.Guard),
		Permissions:   permission.NewHandler(base, ident.Permissions, ident.Auth),
		Users:         user.NewHandler(base, ident.Users),
		Customers:     customer.NewHandler(base, customer.NewService(store, log)),
		Bookings:      booking.NewHandler(base, booking.NewService(store, eventBus, log)),
		Itineraries:   itinerary.NewHandler(base, itinerary.NewService(store, log)),
		Hotels:        hotel.NewHandler(base, hotel.NewService(store, log)),
		Payments:      payment.NewHandler(base, payment.NewService(store, receipts, eventBus, log)),
		Transfers:     transfer.NewHandler(base, transfer.NewService(store, eventBus, log)),
		Notifications: notification.NewHandler(base, notifications),
	}, rest.RouterConfig{
		AllowedOrigins:  config.Server.AllowedOrigins,
		MetricsEnabled:  config.Observability.Metrics.Enabled,
		MetricsPath:     config.Observability.Metrics.Path,
		LoginRateLimit:  config.Server.LoginRateLimit,
		LoginRateWindow: config.Server.LoginRateWindow,
	}, log)

	return &Dependencies{
		Config:     config,
		Identity:   ident,
		Store:      store,
		EventBus:   eventBus,
		Dispatcher: dispatcher,
		Router:     router,
		Logger:     log,
	}, nil
}

// initReceipts returns nil when no bucket endpoint is configured; receipt operations then report an error.
func initReceipts(ctx context.Context, cfg internal.StorageConfig, log *slog.Logger) (payment.ReceiptStore, error) {
	if !cfg.Enabled() {
		log.Warn("storage endpoint not configured; payment receipts are disabled")
		return nil, nil
	}
	bucket, err := datastore.NewBucketStore(datastore.BucketConfig{
		Endpoint:      cfg.Endpoint,
		AccessKey:     cfg.AccessKey,
		SecretKey:     cfg.SecretKey,
		UseSSL:        cfg.UseSSL,
		Bucket:        cfg.ReceiptsBucket,
		PublicBaseURL: cfg.PublicBaseURL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize receipt storage: %w", err)
	}
	if err := bucket.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure receipt bucket: %w", err)
	}
	return bucket, nil
}
