package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/petalworks/api/internal/handlers"
	"github.com/petalworks/api/internal/platform/config"
	pfirestore "github.com/petalworks/api/internal/platform/firestore"
	"github.com/petalworks/api/internal/platform/jobs"
	"github.com/petalworks/api/internal/platform/observability"
	"github.com/petalworks/api/internal/repositories"
	firestoreRepo "github.com/petalworks/api/internal/repositories/firestore"
	"github.com/petalworks/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	customerRepo, err := firestoreRepo.NewCustomerRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise customer repository", zap.Error(err))
	}
	bouquetRepo, err := firestoreRepo.NewBouquetRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise bouquet repository", zap.Error(err))
	}
	collectionRepo, err := firestoreRepo.NewCollectionRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise collection repository", zap.Error(err))
	}

	var events services.OrderEventPublisher
	var pubsubTopic *pubsub.Topic
	if topicID := strings.TrimSpace(cfg.PubSub.OrderTopicID); topicID != "" {
		if host := strings.TrimSpace(cfg.PubSub.EmulatorHost); host != "" {
			_ = os.Setenv("PUBSUB_EMULATOR_HOST", host)
		}
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		pubsubTopic = pubsubClient.Topic(topicID)
		defer pubsubTopic.Stop()

		publisher, err := jobs.NewPubSubOrderEventPublisher(pubsubTopic)
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
		events = &loggingEventPublisher{publisher: publisher, logger: logger.Named("events")}
	} else {
		logger.Info("order event topic not configured; lifecycle events disabled")
	}

	healthRepo, err := newHealthRepository(firestoreClient, pubsubTopic)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    orderRepo,
		Customers: customerRepo,
		Bouquets:  bouquetRepo,
		Limits: services.OrderListLimits{
			Default: cfg.Orders.DefaultListLimit,
			Max:     cfg.Orders.MaxListLimit,
		},
		Clock:  time.Now,
		Events: events,
		Logger: serviceLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	customerService, err := services.NewCustomerService(services.CustomerServiceDeps{
		Customers: customerRepo,
		Clock:     time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise customer service", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Bouquets:    bouquetRepo,
		Collections: collectionRepo,
		Clock:       time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	orderHandlers := handlers.NewOrderHandlers(orderService)
	customerHandlers := handlers.NewCustomerHandlers(customerService)
	catalogHandlers := handlers.NewCatalogHandlers(catalogService)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthRepository(healthRepo),
		handlers.WithHealthStartedAt(startedAt),
		handlers.WithHealthVersion(buildVersion()),
	)

	projectID := strings.TrimSpace(cfg.Firestore.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithCustomerRoutes(customerHandlers.Routes),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("petalworks api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newHealthRepository(client *firestore.Client, topic *pubsub.Topic) (repositories.HealthRepository, error) {
	checks := make([]repositories.DependencyCheck, 0, 2)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if topic != nil {
		t := topic
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				ok, err := t.Exists(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("order event topic does not exist")
				}
				return nil
			},
		})
	}
	return repositories.NewDependencyHealthRepository(checks, time.Now)
}

func serviceLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

func buildVersion() string {
	if version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION")); version != "" {
		return version
	}
	return "dev"
}

// loggingEventPublisher bridges the pubsub publisher into the service-facing
// interface, recording the emitted message id at debug level.
type loggingEventPublisher struct {
	publisher *jobs.PubSubOrderEventPublisher
	logger    *zap.Logger
}

func (p *loggingEventPublisher) PublishOrderEvent(ctx context.Context, event services.OrderEvent) error {
	messageID, err := p.publisher.PublishOrderEvent(ctx, event)
	if err != nil {
		return err
	}
	p.logger.Debug("order event published",
		zap.String("event", event.Name),
		zap.String("order", event.OrderID),
		zap.String("messageId", messageID),
	)
	return nil
}
