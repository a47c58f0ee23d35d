package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/logging"
	"tourguide/internal/repository"
	"tourguide/internal/server"
	"tourguide/internal/service"
	"tourguide/internal/store"
	"tourguide/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	// --- Migrations ---
	if err := config.Migrate(ctx, dbPool, logger); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// --- Auth state: Redis when configured, process memory otherwise ---
	var (
		denylist store.TokenDenylist
		throttle store.LoginThrottle
	)
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		denylist = store.NewRedisDenylist(rdb)
		throttle = store.NewRedisThrottle(rdb, cfg.SigninMaxAttempts, cfg.SigninLockout)
		logger.Info("using redis for token revocation and sign-in throttling", zap.String("addr", cfg.RedisAddr))
	} else {
		denylist = store.NewMemoryDenylist()
		throttle = store.NewMemoryThrottle(cfg.SigninMaxAttempts, cfg.SigninLockout)
		logger.Info("REDIS_ADDR not set, keeping auth state in memory")
	}

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpirationHours)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, jwtUtil, denylist, throttle, cfg.InitialAdminEmail, logger)
	profileService := service.NewProfileService(userRepo)
	adminService := service.NewAdminService(userRepo)

	// --- Setup Gin Router ---
	router := server.NewRouter(server.Dependencies{
		Config:         *cfg,
		Logger:         logger,
		JWT:            jwtUtil,
		DB:             dbPool,
		AuthService:    authService,
		ProfileService: profileService,
		AdminService:   adminService,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
