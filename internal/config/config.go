package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Registry backends.
const (
	RegistryMemory = "memory"
	RegistryRedis  = "redis"
)

// Config holds all environment configuration values for the application.
// These values are loaded from a .env file at startup.
type Config struct {
	// ServerPort is the port the HTTP server listens on
	ServerPort string

	// CorsOrigins lists browser origins allowed for HTTP and WebSocket; "*" allows any
	CorsOrigins []string

	// DBPath is the SQLite database file holding message history
	DBPath string

	// UploadDir is where uploaded files are stored and served from
	UploadDir string

	// MaxUploadBytes caps a single upload request
	MaxUploadBytes int64

	// HistoryLimit is how many messages are replayed on join (1-50)
	HistoryLimit int

	// RegistryBackend selects where room participants are tracked
	RegistryBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// UploadSweepInterval and UploadPartTTL control removal of abandoned partial uploads
	UploadSweepInterval time.Duration
	UploadPartTTL       time.Duration

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
}

// Load reads environment variables and returns a populated Config struct.
// It will load from a .env file if present, then read from environment variables.
// Falls back to sensible defaults if values are not set or cannot be parsed.
func Load() *Config {
	// Attempt to load .env file - not an error if it doesn't exist
	// as we may be running in production with real environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		ServerPort:          getEnv("PORT", "8080"),
		CorsOrigins:         splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		DBPath:              getEnv("DB_PATH", "relay.db"),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:      getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		HistoryLimit:        getEnvInt("HISTORY_LIMIT", 50),
		RegistryBackend:     strings.ToLower(getEnv("REGISTRY_BACKEND", RegistryMemory)),
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RedisPrefix:         getEnv("REDIS_PREFIX", "relay:"),
		UploadSweepInterval: getEnvDuration("UPLOAD_SWEEP_INTERVAL", time.Minute),
		UploadPartTTL:       getEnvDuration("UPLOAD_PART_TTL", 10*time.Minute),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if config.HistoryLimit < 1 || config.HistoryLimit > 50 {
		log.Printf("WARNING: HISTORY_LIMIT=%d out of range, using 50", config.HistoryLimit)
		config.HistoryLimit = 50
	}
	if config.RegistryBackend != RegistryMemory && config.RegistryBackend != RegistryRedis {
		log.Printf("WARNING: unknown REGISTRY_BACKEND %q, using %s", config.RegistryBackend, RegistryMemory)
		config.RegistryBackend = RegistryMemory
	}

	return config
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("WARNING: %s=%q is not a number, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("WARNING: %s=%q is not a positive number, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("WARNING: %s=%q is not a positive duration, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

// splitList splits a comma-separated list and trims whitespace
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
