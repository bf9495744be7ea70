package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// HTTP Server Configuration
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Storage Configuration
	StorageRoot      string
	ArtifactLifetime time.Duration
	SweepSchedule    string

	// Recognition Configuration
	MaxActiveJobs int
	TessdataDir   string

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Webhook Configuration
	WebhookURL          string
	WebhookTimeout      time.Duration
	WebhookMaxAttempts  int
	WebhookInitialDelay int
	WebhookMaxDelay     int

	// NATS Configuration
	NATSURL string

	// MongoDB Configuration (job history, optional)
	HistoryEnabled bool
	MongoURI       string
	MongoDatabase  string
	MongoTimeout   time.Duration

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded configuration from .env file")
	}

	return &Config{
		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,

		// Storage
		StorageRoot:      getEnv("STORAGE_ROOT", "./data/sessions"),
		ArtifactLifetime: getDurationEnv("ARTIFACT_TTL_HOURS", 24) * time.Hour,
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "0 * * * *"),

		// Recognition
		MaxActiveJobs: getIntEnv("MAX_ACTIVE_JOBS", 1),
		TessdataDir:   getEnv("TESSDATA_DIR", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Webhook
		WebhookURL:          getEnv("WEBHOOK_URL", ""),
		WebhookTimeout:      getDurationEnv("WEBHOOK_TIMEOUT_SEC", 10) * time.Second,
		WebhookMaxAttempts:  getIntEnv("WEBHOOK_MAX_ATTEMPTS", 3),
		WebhookInitialDelay: getIntEnv("WEBHOOK_INITIAL_DELAY_MS", 500),
		WebhookMaxDelay:     getIntEnv("WEBHOOK_MAX_DELAY_MS", 10000),

		// NATS
		NATSURL: getEnv("NATS_URL", ""),

		// MongoDB (job history)
		HistoryEnabled: getBoolEnv("HISTORY_ENABLED", false),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017/textmill?authSource=admin"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "textmill"),
		MongoTimeout:   getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS, PATCH"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
