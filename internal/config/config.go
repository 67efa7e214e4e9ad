package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Catalog gateway (hospital/department/doctor/schedule API)
	CatalogBaseURL       string
	CatalogAPIToken      string
	CatalogTimeout       time.Duration
	CatalogRetryAttempts int
	CatalogRetryBaseWait time.Duration

	// Redis session state
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Chat surface
	CORSAllowedOrigins []string
	ChatRatePerSec     float64
	ChatRateBurst      int
	TranscriptMax      int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CatalogBaseURL:       strings.TrimRight(getEnv("CATALOG_BASE_URL", ""), "/"),
		CatalogAPIToken:      getEnv("CATALOG_API_TOKEN", ""),
		CatalogTimeout:       getEnvAsDuration("CATALOG_TIMEOUT", 15*time.Second),
		CatalogRetryAttempts: getEnvAsInt("CATALOG_RETRY_MAX_ATTEMPTS", 2),
		CatalogRetryBaseWait: getEnvAsDuration("CATALOG_RETRY_BASE_WAIT", 300*time.Millisecond),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ChatRatePerSec:     getEnvAsFloat("CHAT_RATE_PER_SEC", 2),
		ChatRateBurst:      getEnvAsInt("CHAT_RATE_BURST", 5),
		TranscriptMax:      getEnvAsInt("TRANSCRIPT_MAX_MESSAGES", 250),
	}
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
