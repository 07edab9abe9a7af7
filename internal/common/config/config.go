package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	BodyLimitMB  int
	LogLevel     string

	GeminiAPIKey string
	GeminiModel  string

	LibraryDBPath   string
	LibraryMaxBytes int64
	SessionIdle     time.Duration

	PlannerURL  string
	CORSOrigins string
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 120),
		BodyLimitMB:  getEnvAsInt("BODY_LIMIT_MB", 20),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		LibraryDBPath:   getEnv("LIBRARY_DB_PATH", "data/db/library.db"),
		LibraryMaxBytes: int64(getEnvAsInt("LIBRARY_MAX_BYTES", 5*1024*1024)),
		SessionIdle:     time.Duration(getEnvAsInt("SESSION_IDLE_MINUTES", 120)) * time.Minute,

		PlannerURL:  getEnv("PLANNER_URL", "http://localhost:3001"),
		CORSOrigins: os.Getenv("CORS_ORIGINS"),
	}
}

// BodyLimit лимит тела запроса в байтах.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
