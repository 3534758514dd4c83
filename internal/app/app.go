package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/quecomemoshoy/internal/config"
	"github.com/utafrali/quecomemoshoy/internal/event"
	handler "github.com/utafrali/quecomemoshoy/internal/handler/http"
	pgrepo "github.com/utafrali/quecomemoshoy/internal/repository/postgres"
	"github.com/utafrali/quecomemoshoy/internal/repository/postgres/migrations"
	redisrepo "github.com/utafrali/quecomemoshoy/internal/repository/redis"
	"github.com/utafrali/quecomemoshoy/internal/service"
	"github.com/utafrali/quecomemoshoy/internal/storage"
	"github.com/utafrali/quecomemoshoy/internal/storage/imageopt"
	"github.com/utafrali/quecomemoshoy/internal/storage/memory"
	"github.com/utafrali/quecomemoshoy/internal/storage/supabase"
	"github.com/utafrali/quecomemoshoy/pkg/database"
	"github.com/utafrali/quecomemoshoy/pkg/health"
	pkgkafka "github.com/utafrali/quecomemoshoy/pkg/kafka"
	"github.com/utafrali/quecomemoshoy/pkg/middleware"
	"github.com/utafrali/quecomemoshoy/pkg/tracing"
)

const serviceName = "quecomemoshoy"

// App wires together all dependencies and runs the ordering backend.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	carts          *service.CartService
	chats          *service.ChatService
	banner         *service.BannerRotator
	limiter        *middleware.RateLimiter
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize tracing.
	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracingCfg.Enabled = cfg.OTELEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL pool and apply the schema.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL", slog.Int("max_conns", int(pgCfg.MaxConns)))

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.RegisterPoolMetrics(pool, serviceName)
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer. Without brokers events are dropped.
	var producer *pkgkafka.Producer
	var eventProducer *event.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		eventProducer = event.NewProducer(nil, logger)
		logger.Warn("KAFKA_BROKERS not set, events will not be published")
	}

	// Object storage.
	var store storage.Storage
	switch cfg.StorageBackend {
	case config.StorageBackendMemory:
		store = memory.New(cfg.SupabaseURL, cfg.StorageBucket, cfg.BannerBucket)
	default:
		store = supabase.New(supabase.Config{
			BaseURL: cfg.SupabaseURL,
			APIKey:  cfg.SupabaseAnonKey,
		}, supabase.NewClient(logger), logger)
	}
	logger.Info("object storage initialized", slog.String("backend", cfg.StorageBackend))

	// Build the dependency graph.
	categoryRepo := pgrepo.NewCategoryRepository(pool)
	productRepo := pgrepo.NewProductRepository(pool)
	bannerRepo := pgrepo.NewBannerRepository(pool)
	faqRepo := pgrepo.NewFAQRepository(pool)
	cartRepo := redisrepo.NewCartRepository(rdb, cfg.CartTTLDuration())
	confirmRepo := redisrepo.NewConfirmationRepository(rdb)

	carts := service.NewCartService(cartRepo, productRepo, cfg.NotificationTTL, logger)
	checkout := service.NewCheckoutService(carts, eventProducer, cfg.WhatsAppOrderNumber, cfg.WhatsAppContactNumber, logger)
	chats := service.NewChatService(faqRepo, cfg.ChatReplyDelay, logger)
	carts.StartIdleEviction(cfg.SessionIdleTTL)
	chats.StartIdleEviction(cfg.SessionIdleTTL)
	banner := service.NewBannerRotator(bannerRepo, cfg.SupabaseURL, cfg.BannerBucket, cfg.BannerInterval, logger)
	admin := service.NewAdminService(service.AdminDeps{
		Categories:    categoryRepo,
		Products:      productRepo,
		Banners:       bannerRepo,
		FAQs:          faqRepo,
		Confirmations: confirmRepo,
		Storage:       store,
		Optimizer:     imageopt.New(),
		Producer:      eventProducer,
	}, service.AdminConfig{
		ProductBucket: cfg.StorageBucket,
		BannerBucket:  cfg.BannerBucket,
	}, logger)

	banner.Load(ctx)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Products:   productRepo,
		Carts:      carts,
		Checkout:   checkout,
		Banner:     banner,
		Chat:       chats,
		Admin:      admin,
		Health:     healthHandler,
		CORS:       corsCfg,
		Logger:     logger,
		RateLimit:  limiter.Handler,
		PprofCIDRs: cfg.PprofAllowedCIDRs,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		carts:          carts,
		chats:          chats,
		banner:         banner,
		limiter:        limiter,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// Run starts the banner rotation and the HTTP server, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.banner.Start()

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Stop timers before the stores they write to go away.
	a.banner.Stop()
	a.limiter.Stop()
	a.chats.Close()
	a.carts.Close()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
