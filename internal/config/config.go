package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken string
	GeminiAPIKey  string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	HTTPTimeout   time.Duration
	TaskTimeout   time.Duration
	MaxConcurrent int

	GeminiBaseURL    string
	GeminiAPIVersion string
	GeminiModel      string

	WebAddr            string
	MaxUploadMB        int
	RedisAddr          string
	RedisPass          string
	RedisDB            int
	BoardTTL           time.Duration
	MediaGroupDebounce time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Debug:              getEnvBool("DEBUG", false),
		PreferIPv4:         getEnvBool("PREFER_IPV4", true),
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		TaskTimeout:        time.Duration(getEnvInt("TASK_TIMEOUT_SECONDS", 180)) * time.Second,
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT", 1),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIVersion:   getEnv("GEMINI_API_VERSION", "v1beta"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		WebAddr:            getEnv("WEB_ADDR", ":8080"),
		MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 20),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPass:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		BoardTTL:           time.Duration(getEnvInt("BOARD_TTL_MINUTES", 120)) * time.Minute,
		MediaGroupDebounce: time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", 1200)) * time.Millisecond,
	}

	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", getEnv("API_KEY", ""))

	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 180 * time.Second
	}
	if cfg.MaxUploadMB < 1 {
		cfg.MaxUploadMB = 20
	}
	if cfg.BoardTTL <= 0 {
		cfg.BoardTTL = 2 * time.Hour
	}
	if cfg.MediaGroupDebounce <= 0 {
		cfg.MediaGroupDebounce = 1200 * time.Millisecond
	}

	return cfg, nil
}

// RequireTelegram reports whether the bot front-end can start.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
