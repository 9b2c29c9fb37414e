package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pos/internal/app"
	"github.com/noah-isme/backend-pos/internal/auth"
	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/customer"
	"github.com/noah-isme/backend-pos/internal/db"
	"github.com/noah-isme/backend-pos/internal/health"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/payment"
	"github.com/noah-isme/backend-pos/internal/ratelimit"
	"github.com/noah-isme/backend-pos/internal/receipt"
	"github.com/noah-isme/backend-pos/internal/repo"
	"github.com/noah-isme/backend-pos/internal/report"
	"github.com/noah-isme/backend-pos/internal/sale"
	"github.com/noah-isme/backend-pos/internal/security"
)

const reportDefaultRangeDays = 30

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pos")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pos-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: 1.0,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	deps, cleanup, err := app.Build(ctx, cfg, logger, "pos-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("build dependencies")
	}
	defer cleanup()

	asynqOpt, err := app.AsynqRedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure task queue")
	}
	taskClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	categories := repo.Categories{Pool: deps.DB}
	products := repo.Products{Pool: deps.DB}
	customers := repo.Customers{Pool: deps.DB}
	methods := repo.PaymentMethods{Pool: deps.DB}
	users := repo.Users{Pool: deps.DB}
	salesRepo := repo.Sales{Pool: deps.DB}
	reports := repo.Reports{Pool: deps.DB}

	catalogService := catalog.NewService(catalog.ServiceConfig{
		Categories: categories,
		Products:   products,
		Cache:      catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
	})
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{
		Service:  catalogService,
		Validate: deps.Validator,
		MaxLimit: cfg.ListMaxLimit,
	})

	customerHandler := customer.NewHandler(customer.NewService(customers), deps.Validator)
	paymentHandler := payment.NewHandler(payment.NewService(methods), deps.Validator)

	authService, err := auth.NewService(auth.Config{
		Users:          users,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := auth.NewHandler(authService, deps.Validator)
	authMiddleware := auth.Middleware{Service: authService}

	saleService := &sale.Service{Store: salesRepo, Log: logger, WalkInID: repo.WalkInCustomerID}
	saleHandler := sale.NewHandler(sale.HandlerConfig{
		Service:  saleService,
		Validate: deps.Validator,
		Receipts: &receipt.Enqueuer{Client: taskClient, Queue: cfg.ReceiptQueue},
		Logger:   logger,
	})

	receiptWorker := &receipt.Worker{
		Source: salesRepo,
		Store:  storeInfo(cfg),
		Redis:  deps.Redis,
		Log:    logger,
	}
	receiptHandler := &receipt.Handler{Worker: receiptWorker}

	reportService := &report.Service{
		Q:            reports,
		R:            deps.Redis,
		TTL:          cfg.ReportCacheTTL,
		DefaultRange: reportDefaultRangeDays,
	}
	reportHandler := &report.Handler{Svc: reportService}

	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	rateLimiter, err := ratelimit.NewRedisLimiter(deps.Redis, cfg.RateLimitWindow, int(cfg.RateLimitMax))
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	rate := ratelimit.Handler{
		Limiter: rateLimiter,
		Config: ratelimit.Config{
			Key:    clientKey,
			Window: cfg.RateLimitWindow,
			Max:    int(cfg.RateLimitMax),
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limit check")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(rate.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", protectMetrics(promhttp.Handler(), cfg.MetricsToken))
	}

	healthHandler := health.Handler{
		Checker: readinessChecker{db: deps.DB, redis: deps.Redis},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		authHandler.Routes(v)

		v.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)
			authHandler.ProtectedRoutes(protected)
			catalogHandler.Routes(protected)
			customerHandler.Routes(protected)
			paymentHandler.Routes(protected)
			receiptHandler.Routes(protected)

			protected.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				saleHandler.Routes(g)
			})
		})

		v.Group(func(managed chi.Router) {
			managed.Use(authMiddleware.RequireRole(auth.RoleManager))
			catalogHandler.AdminRoutes(managed)
			paymentHandler.AdminRoutes(managed)
			reportHandler.Routes(managed)
		})

		v.Group(func(admin chi.Router) {
			admin.Use(authMiddleware.RequireRole(auth.RoleAdmin))
			authHandler.AdminRoutes(admin)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-serverCtx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	health.SetReady(true)
	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server shutdown complete")
}

func storeInfo(cfg *config.Config) receipt.StoreInfo {
	return receipt.StoreInfo{
		Name:      cfg.StoreName,
		TradeName: cfg.StoreTradeName,
		TaxID:     cfg.StoreTaxID,
		Address:   cfg.StoreAddress,
		Phone:     cfg.StorePhone,
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// clientKey buckets rate limit counters by caller IP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func protectMetrics(handler http.Handler, token string) http.Handler {
	if token == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}
