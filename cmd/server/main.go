package main

import (
	"context"   // Context for startup and shutdown
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // OS signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"ecovendix/internal/api"        // HTTP handlers and router
	"ecovendix/internal/config"     // Configuration
	"ecovendix/internal/db"         // Database connection and bootstrap
	"ecovendix/internal/middleware" // Rate limiter
	"ecovendix/internal/repository" // Data access layer
	"ecovendix/internal/service"    // Kiosk workflows

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	// Connect to the database
	gdb, err := db.Open(cfg.DSN(), cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	// Test Redis connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Repositories and services
	store := repository.NewStore(gdb, cfg.StoreTimeout)
	users := repository.NewUserRepository(store)
	products := repository.NewProductRepository(store)
	transactions := repository.NewTransactionRepository(store)

	leaderboard := service.NewLeaderboard(users, redisClient, 30*time.Second)
	sessions := service.NewSessionService(users, redisClient, service.SessionConfig{
		Secret:           cfg.SessionSecret,
		TTL:              cfg.SessionTTL,
		CredentialLength: cfg.CredentialLength,
	})
	accounts := service.NewAccountService(store, users, products, transactions, leaderboard, service.AccountConfig{
		AdminStudentID:   cfg.AdminStudentID,
		CredentialLength: cfg.CredentialLength,
	})
	purchases := service.NewPurchaseService(store, users, products, transactions, leaderboard)
	admin := service.NewAdminService(store, users, products, transactions, sessions, leaderboard)

	// Seed catalog and admin account (idempotent)
	if err := db.Bootstrap(ctx, store, users, products, db.AdminAccount{
		StudentID:        cfg.AdminStudentID,
		Credential:       cfg.AdminCredential,
		CredentialLength: cfg.CredentialLength,
	}); err != nil {
		logrus.Fatalf("bootstrap failed: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	done := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst)
	limiter.StartCleanup(10*time.Minute, done) // Forget idle clients

	router, err := api.NewRouter(api.Dependencies{
		Store:            store,
		Redis:            redisClient,
		Users:            users,
		Sessions:         sessions,
		Accounts:         accounts,
		Purchases:        purchases,
		Admin:            admin,
		Cookies:          api.NewCookieHelper(cfg.CookieSecure, cfg.SessionTTL),
		LoginLimiter:     limiter,
		AllowedOrigins:   cfg.AllowedOrigins,
		CredentialLength: cfg.CredentialLength,
		TrustedProxies:   []string{"127.0.0.1"},
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("Server running on %s", cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for interrupt and drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	close(done)

	logrus.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
