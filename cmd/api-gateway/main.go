package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/class-engine-api/api/swagger"
	"github.com/noah-isme/class-engine-api/internal/handler"
	"github.com/noah-isme/class-engine-api/internal/middleware"
	"github.com/noah-isme/class-engine-api/internal/repository"
	"github.com/noah-isme/class-engine-api/internal/service"
	"github.com/noah-isme/class-engine-api/pkg/cache"
	"github.com/noah-isme/class-engine-api/pkg/config"
	"github.com/noah-isme/class-engine-api/pkg/database"
	"github.com/noah-isme/class-engine-api/pkg/eventbus"
	"github.com/noah-isme/class-engine-api/pkg/jobs"
	"github.com/noah-isme/class-engine-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-engine-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-engine-api/pkg/middleware/requestid"
)

const (
	shutdownTimeout = 15 * time.Second
	readyTimeout    = 2 * time.Second
	cacheNamespace  = "class-engine"
)

// @title Class Engine API
// @version 1.0.0
// @description Class enrollment, attendance and meeting-credit engine
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Classes.CacheEnabled || cfg.Events.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()

	cacheStore := repository.NewCacheRepository(nil, cacheNamespace)
	if redisClient != nil {
		cacheStore = repository.NewCacheRepository(redisClient, cacheNamespace)
	}
	cacheSvc := service.NewCacheService(cacheStore, metrics, cfg.Classes.CacheTTL, logr, cfg.Classes.CacheEnabled)

	logSink := eventbus.NewLogPublisher(logr.Named("events"))
	var sink eventbus.Publisher = logSink
	if cfg.Events.Enabled {
		sink = eventbus.NewRedisPublisher(redisClient, cfg.Events.ChannelPrefix)
	}
	bus := eventbus.NewAsyncPublisher(sink, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
		Logger:     logr,
	})
	bus.Start(context.Background())

	// Log mirror runs once per publish, outside the retrying queue.
	var events eventbus.Publisher = bus
	if cfg.Events.Enabled && cfg.Env != config.EnvProduction {
		events = eventbus.Multi{bus, logSink}
	}

	classRepo := repository.NewClassRepository(db)
	classSvc := service.NewClassService(
		classRepo,
		service.NewDomainEventPublisher(events, metrics),
		cacheSvc,
		metrics,
		nil,
		logr,
		service.ClassServiceConfig{
			CacheTTL:           cfg.Classes.CacheTTL,
			LowCreditThreshold: cfg.Classes.LowCreditThreshold,
		},
	)
	verifier := service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readinessHandler(db, redisClient))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(verifier))
	api.Use(middleware.Audit(logr, "class"))
	handler.RegisterClassRoutes(api, handler.NewClassHandler(classSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	bus.Stop(shutdownCtx)
}

func readinessHandler(db *sqlx.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		checks := gin.H{"database": "ok"}
		status := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		state := "ready"
		if status != http.StatusOK {
			state = "unavailable"
		}
		c.JSON(status, gin.H{"status": state, "checks": checks})
	}
}
