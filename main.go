package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"backend/internal/config"
	"backend/internal/crypto"
	"backend/internal/repository"
	"backend/internal/repository/redisrepo"
	"backend/internal/server"
	"backend/internal/service"
	"backend/internal/telegram_bot"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	log := logrus.New()

	// Load configuration; .env may override the config path
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on the environment")
	}
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Field cipher for RG/CPF at rest
	cipher, err := crypto.NewCipherFromEnv()
	if err != nil {
		logger.Fatal("Failed to load MASTER_KEY", zap.Error(err))
	}

	// Redis-backed token blacklist for logout
	tokenCache, err := redisrepo.NewTokenCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer tokenCache.Close()

	// Repositories and services needed by the Telegram bot
	userRepo := repository.NewUserRepository(db, log)
	permissionRepo := repository.NewPermissionRepository(db, logger)
	requestRepo := repository.NewChildDataRequestRepository(db, logger)
	requestService := service.NewAccessRequestService(requestRepo, permissionRepo, userRepo, logger)

	// Initialize Telegram bot for request notifications
	bot, err := telegram_bot.NewBot(cfg, requestService, userRepo, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram bot, continuing without it", zap.Error(err))
		bot = nil
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run Telegram bot in a goroutine (if enabled)
	if bot != nil {
		go func() {
			if err := bot.Start(ctx); err != nil {
				logger.Error("Telegram bot failed", zap.Error(err))
			}
		}()
	}

	// Initialize and run the server
	srv := server.NewServer(db, cfg, logger, log, tokenCache, cipher, bot)
	srv.Run(cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}
