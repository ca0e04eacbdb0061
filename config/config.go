// Package config loads all application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Coinbase credentials
	CoinbaseAPIKey    string
	CoinbaseAPISecret string

	// Notifications
	TelegramBotToken     string
	TelegramChatID       string
	NotifyWebhookURL     string
	NotifyWebhookTimeout time.Duration

	// Trading
	Simulate          bool
	StopLossPct       float64
	TradeNotionalUSD  float64
	CycleInterval     time.Duration
	MaxProducts       int
	ShortEntries      bool
	QuoteCurrency     string
	CandleGranularity string
	CandleLimit       int

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	JournalPath   string
	MetricsAddr   string
	WSFeed        bool
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is loaded first if
// present. Exchange credentials are only required for live trading.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env file")
	}

	cfg := &Config{
		CoinbaseAPIKey:    getEnv("COINBASE_API_KEY", ""),
		CoinbaseAPISecret: getEnv("COINBASE_API_SECRET", ""),

		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:       getEnv("TELEGRAM_CHAT_ID", ""),
		NotifyWebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyWebhookTimeout: getDuration("NOTIFY_WEBHOOK_TIMEOUT", 10*time.Second),

		Simulate:          getBool("SIMULATE", true),
		StopLossPct:       getFloat("STOP_LOSS_PCT", 0.02),
		TradeNotionalUSD:  getFloat("TRADE_NOTIONAL_USD", 2.0),
		CycleInterval:     getDuration("CYCLE_INTERVAL", 20*time.Minute),
		MaxProducts:       getInt("MAX_PRODUCTS", 10),
		ShortEntries:      getBool("SHORT_ENTRIES", false),
		QuoteCurrency:     getEnv("QUOTE_CURRENCY", "USD"),
		CandleGranularity: getEnv("CANDLE_GRANULARITY", "ONE_HOUR"),
		CandleLimit:       getInt("CANDLE_LIMIT", 100),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		JournalPath:   getEnv("JOURNAL_PATH", "data/trades.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		WSFeed:        getBool("WS_FEED", true),
	}

	if !cfg.Simulate {
		if cfg.CoinbaseAPIKey == "" || cfg.CoinbaseAPISecret == "" {
			log.Fatalf("[config] COINBASE_API_KEY and COINBASE_API_SECRET are required when SIMULATE=false")
		}
	}
	if cfg.StopLossPct <= 0 || cfg.StopLossPct >= 1 {
		log.Fatalf("[config] STOP_LOSS_PCT must be in (0, 1), got %v", cfg.StopLossPct)
	}
	if cfg.TradeNotionalUSD <= 0 {
		log.Fatalf("[config] TRADE_NOTIONAL_USD must be positive, got %v", cfg.TradeNotionalUSD)
	}
	return cfg
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid bool for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid duration for %s: %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
