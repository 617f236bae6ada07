package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/availabledata"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/config"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/db"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/engine"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/events"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/httpapi"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/logger"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/messaging"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/validation"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := log.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.MaxAgeDays); err != nil {
		log.WithError(err).Fatal("Failed to configure logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create database pool")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database connection pool initialized")

	chargeRepo := db.NewChargeRepository(pool.Pool)
	participantRepo := db.NewMarketParticipantRepository(pool.Pool)
	availableDataRepo := db.NewAvailableDataRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool)

	if err := seedParticipants(ctx, participantRepo, cfg.Participants); err != nil {
		log.WithError(err).Fatal("Failed to register market participants")
	}

	clock := validation.SystemClock{}
	notifiers := domain.Notifiers{
		availabledata.NewNotifier(availableDataRepo, chargeRepo, participantRepo, clock),
	}

	var publisher *events.RabbitMQPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.EventExchange)
		if err != nil {
			log.WithError(err).Fatal("Failed to create RabbitMQ publisher")
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}

	processor := engine.NewBundleProcessor(chargeRepo, participantRepo, txManager, notifiers, clock, cfg.Limits)
	peeker := availabledata.NewService(availableDataRepo, cfg.Weights, cfg.PendingLimit)

	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: httpapi.NewRouter(httpapi.NewHandler(processor, peeker)),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logger.Fields{"addr": httpServer.Addr}).Info("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.RabbitMQ.Enabled {
		consumer, err := messaging.NewBundleConsumer(messaging.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.BundleExchange,
			Queue:      cfg.RabbitMQ.InboundQueue,
			RoutingKey: cfg.RabbitMQ.InboundKey,
			Prefetch:   cfg.RabbitMQ.Prefetch,
		}, processor)
		if err != nil {
			log.WithError(err).Fatal("Failed to create RabbitMQ consumer")
		}
		defer consumer.Close()

		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Charges service stopped with error")
		os.Exit(1)
	}
	log.Info("Charges service stopped")
}

// seedParticipants registers the configured participants. Existing rows
// keep their id; role and activity are overwritten.
func seedParticipants(ctx context.Context, repo *db.MarketParticipantRepository, seeds []config.ParticipantSeed) error {
	for _, seed := range seeds {
		err := repo.Upsert(ctx, &domain.MarketParticipant{
			ID:                  uuid.New(),
			MarketParticipantID: seed.MarketParticipantID,
			Role:                domain.MarketParticipantRole(seed.Role),
			IsActive:            seed.Active,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
