package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"referral-staking-backend/docs"
	"referral-staking-backend/internal/common/cache"
	"referral-staking-backend/internal/common/config"
	applogger "referral-staking-backend/internal/common/logger"
	"referral-staking-backend/internal/common/metrics"
	"referral-staking-backend/internal/common/middleware"
	"referral-staking-backend/internal/common/validation"
	adminHandler "referral-staking-backend/internal/features/admin/delivery/http"
	"referral-staking-backend/internal/features/admin/jobs"
	adminService "referral-staking-backend/internal/features/admin/service"
	referralHandler "referral-staking-backend/internal/features/referral/delivery/http"
	referralService "referral-staking-backend/internal/features/referral/service"
	stakingHandler "referral-staking-backend/internal/features/staking/delivery/http"
	stakingService "referral-staking-backend/internal/features/staking/service"
	"referral-staking-backend/internal/platform/postgres"
	"referral-staking-backend/internal/platform/redis"
	ledgerRepo "referral-staking-backend/internal/repository/postgres"
	"referral-staking-backend/internal/settlement"
)

// @title           Referral Staking API
// @version         1.0
// @description     Referral registration, staking settlement and operator API.

// @host      localhost:8080
// @BasePath  /api/v1

// @tag.name referral
// @tag.description Wallet registration and referral statistics

// @tag.name staking
// @tag.description Stake creation, unlock and listing

// @tag.name admin
// @tag.description Operator API, requires an admin bearer token

const serviceName = "referral-staking-backend"

func main() {
	issueToken := flag.String("issue-admin-token", "", "print an admin token for the given subject and exit")
	tokenTTL := flag.Duration("admin-token-ttl", 24*time.Hour, "lifetime of the issued admin token")
	flag.Parse()

	// Инициализируем конфигурацию
	cfg := config.Load()

	if *issueToken != "" {
		if cfg.Admin.JWTSecret == "" {
			log.Fatal("ADMIN_JWT_SECRET is not set")
		}
		token, err := middleware.IssueAdminToken(cfg.Admin.JWTSecret, *issueToken, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	applogger.Init(serviceName, cfg.Debug)

	// zap обслуживает HTTP слой, zerolog остальные компоненты
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Referral Staking Backend",
		zap.String("version", "1.0.0"),
		zap.Bool("debug", cfg.Debug),
	)

	// Инициализируем базу данных
	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgresClient.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgresClient.Migrate(); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	// Инициализируем Redis
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	var store cache.Store
	if redisClient != nil {
		defer redisClient.Close()
		store = redisClient
	}

	// Инициализируем кэш
	cacheService := cache.NewCacheService(store, cfg.Redis.StatsTTL)

	// Инициализируем репозитории и сервисы
	repo := ledgerRepo.NewLedgerRepository(postgresClient.GetDB())
	policy := settlement.PolicyFromConfig(cfg.Rewards)

	referralSvc := referralService.NewReferralService(repo, policy, cacheService, referralService.Options{
		BaseURL:          cfg.Referral.BaseURL,
		StrictValidation: cfg.Wallet.StrictValidation,
	})
	stakingSvc := stakingService.NewStakingService(repo, policy, cacheService, stakingService.Options{})
	adminSvc := adminService.NewAdminService(repo, stakingSvc, nil)

	logger.Info("Services initialized")

	// Настраиваем Gin
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validation.RegisterBindingValidators(); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}

	router := gin.New()

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	// Добавляем middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger())
	router.Use(metrics.Middleware())

	// Настраиваем CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Настраиваем роуты
	v1 := router.Group("/api/v1", limiter.Handler(logger))
	referralHandler.NewReferralHandler(referralSvc, logger).RegisterRoutes(v1)
	stakingHandler.NewStakingHandler(stakingSvc, logger).RegisterRoutes(v1)
	adminHandler.NewAdminHandler(adminSvc, cfg.Admin.JWTSecret, logger).RegisterRoutes(v1)

	setupServiceRoutes(router, postgresClient, redisClient)

	// Фоновые задачи
	scheduler := jobs.NewScheduler(repo, limiter)
	if err := scheduler.Register(cfg.Jobs.MetricsRefreshSpec); err != nil {
		logger.Fatal("Failed to schedule jobs", zap.Error(err))
	}
	scheduler.Start()

	// Создаем HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Ждем сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)

	logger.Info("Server exited")
}

func setupServiceRoutes(router *gin.Engine, postgresClient *postgres.Client, redisClient *redis.Client) {
	docs.SwaggerInfo.BasePath = "/api/v1"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	// Liveness check
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Readiness check
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		// Redis опционален: без него отключается только кэш
		if redisClient != nil {
			if err := redisClient.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "redis unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
