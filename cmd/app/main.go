package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zenithmedia_bot/internal/bot"
	"zenithmedia_bot/internal/config"
	"zenithmedia_bot/internal/cryptopay"
	"zenithmedia_bot/internal/db"
	httpServer "zenithmedia_bot/internal/http"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/rates"
	"zenithmedia_bot/internal/repository"
	"zenithmedia_bot/internal/service"
	"zenithmedia_bot/internal/videometa"
	"zenithmedia_bot/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	// Repositories
	creatorRepo := repository.NewCreatorRepository(dbPool)
	videoRepo := repository.NewVideoRepository(dbPool)
	ledgerRepo := repository.NewLedgerRepository(dbPool)
	payoutRepo := repository.NewPayoutRepository(dbPool)
	referralRepo := repository.NewReferralRepository(dbPool)
	rewardKeyRepo := repository.NewRewardKeyRepository(dbPool)
	auditRepo := repository.NewAuditRepository(dbPool)

	// Rail and rates
	railClient := cryptopay.NewClient(cfg.CryptoPayToken, cfg.CryptoPayTestnet)
	rateGateway := rates.New(railClient, cfg.FixedRateUSDTPerRub, redisClient, cfg.RateCacheTTL)
	dispatcher := service.NewDispatcher(railClient, rateGateway, cfg.MinTransferUSDT)

	// Services
	auditSvc := service.NewAuditService(auditRepo)
	ledgerSvc := service.NewLedgerService(ledgerRepo, auditSvc, cfg.ReferralPercent)
	creatorSvc := service.NewCreatorService(creatorRepo, referralRepo, cfg.BotUsername)
	videoSvc := service.NewVideoService(videoRepo, creatorRepo, videometa.NewHTTPParser(cfg.ParserBaseURL))
	payoutSvc := service.NewPayoutService(creatorRepo, videoRepo, payoutRepo, ledgerSvc, dispatcher, auditSvc, service.PayoutConfig{
		MinWithdrawalKop:  cfg.MinWithdrawalKop,
		TikTokRatePer1000: cfg.TikTokRatePer1000,
		Cooldown:          cfg.PayoutCooldown,
	})
	rewardSvc := service.NewRewardService(rewardKeyRepo, service.RewardConfig{
		MinVideos: cfg.KeyMinVideos,
		Window:    time.Duration(cfg.KeyPeriodDays) * 24 * time.Hour,
		Cooldown:  cfg.KeyCooldown,
	})
	adminSvc := service.NewAdminService(creatorRepo, payoutRepo, rewardSvc, railClient, auditSvc)

	// Bot
	tgBot, err := bot.New(cfg.BotToken, creatorSvc, videoSvc, payoutSvc, adminSvc, ledgerSvc, cfg.AdminTelegramIDs)
	if err != nil {
		logger.Fatal("failed to start bot", "error", err)
	}
	go tgBot.Start()

	// Reward key distributor
	distributor := worker.NewDistributor(rewardSvc, tgBot, cfg.KeyInterval)
	distributor.Start()

	// HTTP
	r := gin.Default()

	// CORS for the dashboard (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, dbPool, version, payoutSvc, videoSvc, adminSvc, auditSvc)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	distributor.Stop()
	tgBot.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
