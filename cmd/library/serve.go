package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/isitech/bibliotheque/internal/api"
	"github.com/isitech/bibliotheque/internal/api/metrics"
	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/service"
	mongodb "github.com/isitech/bibliotheque/internal/infrastructure/db/mongo"
	redisstore "github.com/isitech/bibliotheque/internal/infrastructure/db/redis"
	"github.com/isitech/bibliotheque/internal/infrastructure/memory"
	"github.com/isitech/bibliotheque/internal/infrastructure/queue"
	"github.com/isitech/bibliotheque/internal/pkg/config"
	"github.com/isitech/bibliotheque/pkg/logger"
)

const (
	shutdownTimeout    = 10 * time.Second
	queueDepthInterval = 5 * time.Second
)

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	var (
		opts       []service.Option
		db         *mongo.Database
		rdb        *goredis.Client
		dispatcher *queue.Dispatcher
	)

	// --- Audit trail (optional) ---
	if cfg.Mongo.URI != "" {
		client, database, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo := mongodb.NewLoanEventRepository(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("loan event indexes not created")
		}

		dispatcher = queue.NewDispatcher(cfg.Library.AuditWorkers, repo, logger.For("audit"))
		dispatcher.OnResult = func(_ domain.LoanEvent, err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			metrics.AuditWritesTotal.WithLabelValues(result).Inc()
		}
		opts = append(opts, service.WithEventPublisher(dispatcher), service.WithHistory(repo))
		db = database
		log.Info().Str("database", cfg.Mongo.Database).Msg("loan audit trail enabled")
	}

	// --- Idempotency store (optional) ---
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		opts = append(opts, service.WithIdempotency(redisstore.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)))
		rdb = client
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency store enabled")
	}

	svc := service.NewLibraryService(cfg.Library.Name, memory.NewCatalog(), memory.NewRegistry(), logger.For("library"), opts...)
	if cfg.Library.Seed {
		if err := seedLibrary(ctx, svc); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	stats := svc.Stats(ctx)
	metrics.SetCatalog(stats.TotalBooks, stats.AvailableBooks)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if dispatcher != nil {
		dispatcher.Start(workerCtx)
		go reportQueueDepth(workerCtx, dispatcher)
	}

	e := api.NewRouter(api.Dependencies{
		Service: svc,
		Mongo:   db,
		Redis:   rdb,
		Logger:  logger.For("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("library", cfg.Library.Name).Msg("server started")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// Requests are drained; flush the audit queue before closing the stores.
	stopWorkers()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	return nil
}

func reportQueueDepth(ctx context.Context, d *queue.Dispatcher) {
	ticker := time.NewTicker(queueDepthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for i, n := range d.Depth() {
				metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(n))
			}
		}
	}
}
