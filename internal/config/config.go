// Package config loads process configuration from the environment, the
// same shape as the teacher's cmd/server/config.go: godotenv.Load() for a
// best-effort .env, then getEnv(key, fallback) for every field.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr   string
	SignerURL    string
	RelayURL     string
	AdminToken   string
	RedisURL     string

	SessionRetention time.Duration
	ArenaTick        time.Duration
	ChessClock       time.Duration
	RequestTimeout   time.Duration

	EventsRingCapacity int

	SignerTimeout    time.Duration
	SignerMaxRetries int
}

// Load loads config from the environment (plus an optional .env file), the
// same pattern as the teacher's LoadConfig.
func Load() Config {
	godotenv.Load()

	return Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		SignerURL:  getEnv("SIGNER_URL", "http://localhost:9001/sign"),
		RelayURL:   getEnv("CONTRACT_RELAY_URL", "http://localhost:9002/submit_results"),
		AdminToken: getEnv("ADMIN_TOKEN", "dev-admin-token"),
		RedisURL:   getEnv("REDIS_URL", ""),

		SessionRetention: getEnvSeconds("SESSION_RETENTION_SECONDS", 3600),
		ArenaTick:        getEnvMillis("ARENA_TICK_MS", 50),
		ChessClock:       getEnvSeconds("CHESS_CLOCK_SECONDS", 300),
		RequestTimeout:   getEnvSeconds("REQUEST_TIMEOUT_SECONDS", 5),

		EventsRingCapacity: getEnvInt("EVENTS_RING_CAPACITY", 1024),

		SignerTimeout:    getEnvSeconds("SIGNER_TIMEOUT_SECONDS", 5),
		SignerMaxRetries: getEnvInt("SIGNER_MAX_RETRIES", 3),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallbackSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackSeconds)) * time.Second
}

func getEnvMillis(key string, fallbackMillis int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMillis)) * time.Millisecond
}
