package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"zenithmedia_bot/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	RedisAddr   string // optional, enables the exchange-rate cache
	JWTSecret   string

	BotToken         string
	BotUsername      string
	AdminTelegramIDs []int64
	AdminChatID      int64 // chat that receives operator summaries

	CryptoPayToken   string
	CryptoPayTestnet bool

	// Payout policy
	MinWithdrawalKop    int64   // minimum balance payout, kopecks
	MinTransferUSDT     float64 // rail-side minimum transfer
	ReferralPercent     int64
	TikTokRatePer1000   int64         // kopecks per 1000 TikTok views
	FixedRateUSDTPerRub float64       // when > 0, skip the provider and use this rate
	RateCacheTTL        time.Duration
	PayoutCooldown      time.Duration // between creator-initiated retries of a pending payout

	// Reward key distribution
	KeyMinVideos  int
	KeyPeriodDays int
	KeyInterval   time.Duration
	KeyCooldown   time.Duration

	ParserBaseURL string // video-metadata service
}

// Load reads configuration from the environment (.env supported).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	cryptoToken := os.Getenv("CRYPTO_PAY_TOKEN")
	if cryptoToken == "" {
		logger.Fatal("CRYPTO_PAY_TOKEN is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// !! АДМИНЫ ЧЕРЕЗ ЗАПЯТУЮ В ENV !!
	var adminIDs []int64
	if s := os.Getenv("ADMIN_TELEGRAM_IDS"); s != "" {
		for _, idStr := range strings.Split(s, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		JWTSecret:   jwtSecret,

		BotToken:         botToken,
		BotUsername:      envString("BOT_USERNAME", "ZenithMediaBot"),
		AdminTelegramIDs: adminIDs,
		AdminChatID:      envInt64("ADMIN_CHAT_ID", 0),

		CryptoPayToken:   cryptoToken,
		CryptoPayTestnet: os.Getenv("CRYPTO_PAY_TESTNET") == "true",

		MinWithdrawalKop:    envKopecks("MIN_WITHDRAWAL_RUB", 3000), // 30 RUB
		MinTransferUSDT:     envFloat("MIN_TRANSFER_USDT", 1.0),
		ReferralPercent:     envInt64("REFERRAL_PERCENT", 10),
		TikTokRatePer1000:   envKopecks("TIKTOK_RATE_PER_1000_VIEWS", 6500), // 65 RUB
		FixedRateUSDTPerRub: envFloat("FIXED_RATE_USDT_PER_RUB", 0),
		RateCacheTTL:        envMinutes("RATE_CACHE_TTL_MINUTES", 5),
		PayoutCooldown:      envHours("PAYOUT_COOLDOWN_HOURS", 24),

		KeyMinVideos:  envInt("KEY_MIN_VIDEOS", 2),
		KeyPeriodDays: envInt("KEY_PERIOD_DAYS", 7),
		KeyInterval:   envHours("KEY_INTERVAL_HOURS", 24),
		KeyCooldown:   envHours("KEY_COOLDOWN_HOURS", 7*24),

		ParserBaseURL: os.Getenv("PARSER_BASE_URL"),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

// envKopecks parses a rouble amount from env and returns kopecks.
func envKopecks(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return int64(f * 100)
		}
	}
	return def
}

func envHours(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
	}
	return time.Duration(def) * time.Hour
}

func envMinutes(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(def) * time.Minute
}
