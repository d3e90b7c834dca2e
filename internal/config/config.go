package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Addr          string
	SessionSecret string

	DBUrl  string
	DBNs   string
	DBDb   string
	DBUser string
	DBPass string

	// TypingTimeout is how long a typing indicator survives without a
	// refresh before the tracker emits a stop on the user's behalf.
	TypingTimeout time.Duration

	// OfflineDebounce delays the offline broadcast after a user's last
	// connection closes, so page reloads don't flap presence.
	OfflineDebounce time.Duration

	UploadDir     string
	MaxUploadSize int64

	TracingEnabled bool
	ZipkinURL      string
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:            envOr("APP_ADDR", ":8080"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		DBUrl:           os.Getenv("SURREAL_URL"),
		DBUser:          os.Getenv("SURREAL_USER"),
		DBPass:          os.Getenv("SURREAL_PASS"),
		DBNs:            os.Getenv("SURREAL_NS"),
		DBDb:            os.Getenv("SURREAL_DB"),
		TypingTimeout:   envDurationOr("TYPING_TIMEOUT", 5*time.Second),
		OfflineDebounce: envDurationOr("OFFLINE_DEBOUNCE", 5*time.Second),
		UploadDir:       envOr("UPLOAD_DIR", "uploads"),
		MaxUploadSize:   envInt64Or("MAX_UPLOAD_SIZE", 10<<20),
		TracingEnabled:  os.Getenv("TRACING_ENABLED") == "true",
		ZipkinURL:       envOr("ZIPKIN_URL", "http://localhost:9411/api/v2/spans"),
	}

	if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
		log.Fatal("Required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set.")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("Required environment variable SESSION_SECRET is not set.")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}

func envInt64Or(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
