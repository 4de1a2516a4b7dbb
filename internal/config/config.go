package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	// HTTP listen address, e.g. ":8080"
	ListenAddr string
	// Database driver: "sqlite3" or "postgres"
	DBDriver string
	// Database DSN: file path for sqlite3, connection URL for postgres
	DBDSN string
	// Telegram bot token for review reminders; empty disables them
	TelegramToken string
	// Telegram chat to send reminders to
	TelegramChatID int64
	// Dictionary API base URL; empty uses the public endpoint
	DictionaryURL string
	// Scheduler toggle, on unless set to "false"
	SchedulerEnabled bool
}

// Load reads the configuration from a .env file (when present) and
// the process environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		DBDriver:         getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:            os.Getenv("DB_DSN"),
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DictionaryURL:    os.Getenv("DICTIONARY_API_URL"),
		SchedulerEnabled: os.Getenv("ENABLE_SCHEDULER") != "false",
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.DBDriver != "sqlite3" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
