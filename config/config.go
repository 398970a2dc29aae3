package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort         string
	Currencies      []string
	RefreshInterval time.Duration
	LookbackHours   int
	ChunkHours      int
	DeribitURL      string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment directly")
	}

	return &Config{
		AppPort:         getEnv("APP_PORT", "3000"),
		Currencies:      splitList(getEnv("CURRENCIES", "BTC,ETH")),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),
		LookbackHours:   getEnvInt("LOOKBACK_HOURS", 24),
		ChunkHours:      getEnvInt("CHUNK_HOURS", 4),
		DeribitURL:      getEnv("DERIBIT_URL", ""),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	return out
}
