package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/democredit/internal/adapter/http"
	"github.com/iho/democredit/internal/adapter/http/handler"
	"github.com/iho/democredit/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/democredit/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/democredit/internal/adapter/repository/redis"
	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/infrastructure/auth"
	"github.com/iho/democredit/internal/infrastructure/config"
	"github.com/iho/democredit/internal/infrastructure/eventpublisher"
	"github.com/iho/democredit/internal/infrastructure/logger"
	"github.com/iho/democredit/internal/infrastructure/metrics"
	"github.com/iho/democredit/internal/infrastructure/postgres"
	"github.com/iho/democredit/internal/infrastructure/redis"
	"github.com/iho/democredit/internal/infrastructure/screening"
	"github.com/iho/democredit/internal/usecase"
)

const (
	screeningCachePrefix = "screening:"
	limiterCleanupEvery  = time.Minute
	limiterMaxIdle       = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = logg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logg zerolog.Logger) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logg); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logg.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redis.ClientConfig{
		URL:          cfg.RedisURL,
		PoolSize:     cfg.RedisPoolSize,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	logg.Info().Msg("connected to redis")

	policy, err := domain.NewAmountPolicy(cfg.MinAmount, cfg.MaxAmount)
	if err != nil {
		return err
	}

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool, cfg.TxLockTimeout)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	// Use cases
	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	screener := newScreening(cfg, redisRepo.NewCache(redisClient, screeningCachePrefix), m, logg)

	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, idGen, screener, jwt)
	txUC := usecase.NewTransactionUseCase(txManager, accountRepo, entryRepo, outboxRepo, idGen, usecase.TransactionConfig{
		Policy:   policy,
		Timeout:  cfg.TxTimeout,
		Recorder: m,
		Logger:   &logg,
	})
	entryUC := usecase.NewEntryUseCase(entryRepo)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo, ledgerRepo)

	var retrier handler.Retrier
	if cfg.TxRetryEnabled {
		retrier = postgresRepo.NewRetrier(logg)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithRecorder(m)
	go limiter.RunCleanup(ctx, limiterCleanupEvery, limiterMaxIdle)

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  newPublisher(cfg, redisClient, logg),
		Recorder:   m,
		Logger:     &logg,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		AuthHandler:        handler.NewAuthHandler(accountUC, cfg.JWTExpiration, cfg.SecureCookies),
		TransactionHandler: handler.NewTransactionHandler(txUC, retrier),
		EntryHandler:       handler.NewEntryHandler(entryUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisPinger(redisClient)),
		LedgerHandler:      handler.NewLedgerHandler(reconciliationUC),
		OpsToken:           cfg.OpsToken,
		TokenVerifier:      jwt,
		IdempotencyStore:   redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        limiter,
		Metrics:            m,
		MetricsHandler:     promhttp.Handler(),
		Logger:             logg,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logg.Info().Msg("server stopped")
	return nil
}

// newScreening returns the cached Karma client, or an approve-all check when screening is off.
func newScreening(cfg *config.Config, cache usecase.Cache, m *metrics.Metrics, logg zerolog.Logger) usecase.ScreeningService {
	if !cfg.ScreeningEnabled {
		logg.Warn().Msg("identity screening disabled")
		return screening.Noop{}
	}

	karma := screening.NewKarmaClient(screening.KarmaConfig{
		BaseURL: cfg.KarmaAPIURL,
		Token:   cfg.KarmaAPIToken,
		Timeout: cfg.ScreeningTimeout,
		Logger:  logg,
	})
	return screening.NewCached(karma, cache, cfg.ScreeningCacheTTL, m, logg)
}

// newPublisher writes outbox events to a Redis stream, or to the log when no stream is configured.
func newPublisher(cfg *config.Config, client *goredis.Client, logg zerolog.Logger) eventpublisher.Publisher {
	if cfg.OutboxStream == "" {
		return eventpublisher.NewLogPublisher(logg)
	}
	return redisRepo.NewStreamPublisher(client, cfg.OutboxStream, cfg.OutboxMaxLen)
}

func redisPinger(client *goredis.Client) handler.Pinger {
	return handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
