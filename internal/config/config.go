package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	Host        string
	Env         string

	// HistoryOnConnect controls whether a fresh connection gets the
	// recent backlog replayed before the join broadcasts.
	HistoryOnConnect    bool
	HistoryBacklogLimit int

	UploadDir        string
	UploadAccessPath string

	// RetentionDays <= 0 disables the retention sweep entirely.
	RetentionDays int
}

func Load() *Config {
	log.Println("[CONFIG] Attempting to load .env file...")

	err := godotenv.Load()
	if err != nil {
		log.Println("[CONFIG] No .env file found, relying on system environment variables")
	} else {
		log.Println("[CONFIG] Successfully loaded .env file")
	}

	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Port:                getEnv("PORT", "8080"),
		Host:                getEnv("HOST", "localhost"),
		Env:                 getEnv("APP_ENV", "development"),
		HistoryOnConnect:    getEnvBool("HISTORY_ON_CONNECT", true),
		HistoryBacklogLimit: getEnvInt("HISTORY_BACKLOG_LIMIT", 50),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		UploadAccessPath:    getEnv("UPLOAD_ACCESS_PATH", "/files/"),
		RetentionDays:       getEnvInt("RETENTION_DAYS", 0),
	}

	log.Printf("[CONFIG] Environment: %s", cfg.Env)
	log.Printf("[CONFIG] Target Port: %s", cfg.Port)

	if cfg.DatabaseURL == "" {
		log.Fatal("[CONFIG] CRITICAL: DATABASE_URL is missing. Server cannot start.")
	} else {
		log.Printf("[CONFIG] Database URL detected: %s", maskDBSource(cfg.DatabaseURL))
	}

	log.Println("[CONFIG] All configuration variables successfully initialized")
	return cfg
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Printf("[CONFIG] Variable %s not found, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		log.Printf("[CONFIG] Variable %s not found, using default: %d", key, defaultValue)
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[CONFIG] Variable %s is not a number (%q), using default: %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	raw, exists := os.LookupEnv(key)
	if !exists {
		log.Printf("[CONFIG] Variable %s not found, using default: %t", key, defaultValue)
		return defaultValue
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("[CONFIG] Variable %s is not a boolean (%q), using default: %t", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func maskDBSource(dsn string) string {
	parts := strings.Split(dsn, "@")
	if len(parts) < 2 {
		return "invalid-dsn-format"
	}
	return "postgres://****:****@" + parts[1]
}
