package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	ServerPort   string
	GinMode      string
	LogLevel     string
	LogFormat    string
	StoreBackend string
	// DatabaseURL enables the results archive when set.
	DatabaseURL string
	MaxDBConns  int32
	// RedisURL is required by the redis store backend and the archive queue.
	RedisURL string
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModels []string

	InterviewRole      string
	GenerationTimeout  time.Duration
	EvaluationTimeout  time.Duration
	SummaryTimeout     time.Duration
	TickInterval       time.Duration
	RateLimitPerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "pretty"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreBackendMemory)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		MaxDBConns:         int32(getEnvInt("MAX_DB_CONNS", 8)),
		RedisURL:           os.Getenv("REDIS_URL"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "")),
		LLMProvider:        getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModels:       splitList(getEnv("GEMINI_MODELS", "gemini-2.5-flash")),
		InterviewRole:      getEnv("INTERVIEW_ROLE", "Full Stack Developer (React/Node.js)"),
		GenerationTimeout:  time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 30)) * time.Second,
		EvaluationTimeout:  time.Duration(getEnvInt("EVALUATION_TIMEOUT_SECONDS", 30)) * time.Second,
		SummaryTimeout:     time.Duration(getEnvInt("SUMMARY_TIMEOUT_SECONDS", 30)) * time.Second,
		TickInterval:       time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}
}

// ArchiveEnabled reports whether completed interviews are exported.
func (c *Config) ArchiveEnabled() bool {
	return c.DatabaseURL != "" && c.RedisURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// splitList splits a comma-separated string into a trimmed slice.
// Returns nil if the input is empty.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
