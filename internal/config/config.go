package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Slack struct {
		BotToken string
		AppToken string
	}
	Ingest struct {
		PollInterval     time.Duration
		ErrorBackoff     time.Duration
		ReconnectBackoff time.Duration
		HistoryPageSize  int
	}
	API struct {
		Port     string
		BasePath string
	}
	Logging struct {
		Dir   string
		Level string
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	Telegram struct {
		BotToken      string
		ChatID        int64
		RatePerSecond int
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// Slack settings
	cfg.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	cfg.Slack.AppToken = os.Getenv("SLACK_APP_TOKEN")

	// Ingestion settings
	if v, err := strconv.Atoi(os.Getenv("POLL_INTERVAL_SECONDS")); err == nil {
		cfg.Ingest.PollInterval = time.Duration(v) * time.Second
	}
	if v, err := strconv.Atoi(os.Getenv("ERROR_BACKOFF_SECONDS")); err == nil {
		cfg.Ingest.ErrorBackoff = time.Duration(v) * time.Second
	}
	if v, err := strconv.Atoi(os.Getenv("RECONNECT_BACKOFF_SECONDS")); err == nil {
		cfg.Ingest.ReconnectBackoff = time.Duration(v) * time.Second
	}
	if v, err := strconv.Atoi(os.Getenv("HISTORY_PAGE_SIZE")); err == nil {
		cfg.Ingest.HistoryPageSize = v
	}

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Logging settings
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Optional Kafka activity event publishing
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	// Optional Telegram alert forwarding
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = v
	}
	if v, err := strconv.Atoi(os.Getenv("TELEGRAM_RATE_LIMIT")); err == nil {
		cfg.Telegram.RatePerSecond = v
	}

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.Slack.BotToken == "" {
		missing = append(missing, "SLACK_BOT_TOKEN")
	}
	if cfg.Slack.AppToken == "" {
		missing = append(missing, "SLACK_APP_TOKEN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.Ingest.PollInterval == 0 {
		cfg.Ingest.PollInterval = 60 * time.Second
	}
	if cfg.Ingest.ErrorBackoff == 0 {
		cfg.Ingest.ErrorBackoff = 300 * time.Second
	}
	if cfg.Ingest.ReconnectBackoff == 0 {
		cfg.Ingest.ReconnectBackoff = 300 * time.Second
	}
	if cfg.Ingest.HistoryPageSize == 0 {
		cfg.Ingest.HistoryPageSize = 200
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Kafka.Broker != "" && cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "activity_events"
	}
	if cfg.Telegram.RatePerSecond == 0 {
		cfg.Telegram.RatePerSecond = 1
	}

	return cfg, nil
}
