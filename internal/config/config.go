// internal/config/config.go
//
// Environment configuration. main loads .env (godotenv) before calling Load,
// so values may come from either place.
//
// Environment variables:
//   PORT=5175                      HTTP listen port
//   LOG_LEVEL=info                 zerolog level
//   DB_PATH=./data/app.db          SQLite file (users, solves, daily results)
//   STORE_DRIVER=sqlite            progress KV: sqlite | memory | postgres | redis
//   POSTGRES_DSN=postgres://...    required for STORE_DRIVER=postgres
//   REDIS_ADDR=localhost:6379      required for STORE_DRIVER=redis (host:port or redis:// URL)
//   PUZZLES_URL / PUZZLES_FILE     puzzle feed source (default: bundled feed)
//   PUZZLES_UPLOAD=false           let logged-in players replace the catalog (POST /puzzles)
//   SESSION_TTL_MIN=120            idle minutes before a session is evicted (0 keeps them)
//   REPLY_DELAY_MS=400             pause before the opponent reply
//   JWT_SECRET, JWT_EXPIRES_DAYS=14, COOKIE_NAME=trainer_token
//   CLIENT_ORIGIN=http://localhost:5173
//   DAILY_SALT=local_dev_salt
//   NODE_ENV=production            secure cookies

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

const devSecret = "dev_secret_change_me"

// Config is the resolved server configuration.
type Config struct {
	Port     string
	LogLevel string

	DBPath      string
	StoreDriver string
	PostgresDSN string
	RedisAddr   string

	PuzzlesURL  string
	PuzzlesFile string
	AllowUpload bool
	ReplyDelay  time.Duration
	SessionTTL  time.Duration

	JWTSecret    string
	JWTExpiry    time.Duration
	CookieName   string
	ClientOrigin string
	DailySalt    string
	Production   bool
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	c := Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DBPath:       getEnv("DB_PATH", "./data/app.db"),
		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		PuzzlesURL:   os.Getenv("PUZZLES_URL"),
		PuzzlesFile:  os.Getenv("PUZZLES_FILE"),
		AllowUpload:  envBool("PUZZLES_UPLOAD"),
		ReplyDelay:   time.Duration(envInt("REPLY_DELAY_MS", 400)) * time.Millisecond,
		SessionTTL:   time.Duration(envInt("SESSION_TTL_MIN", 120)) * time.Minute,
		JWTSecret:    getEnv("JWT_SECRET", devSecret),
		JWTExpiry:    time.Duration(envInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName:   getEnv("COOKIE_NAME", "trainer_token"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DailySalt:    getEnv("DAILY_SALT", "local_dev_salt"),
		Production:   os.Getenv("NODE_ENV") == "production",
	}

	switch c.StoreDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return c, fmt.Errorf("STORE_DRIVER=postgres needs POSTGRES_DSN")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return c, fmt.Errorf("STORE_DRIVER=redis needs REDIS_ADDR")
		}
	default:
		return c, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Production && c.JWTSecret == devSecret {
		return c, fmt.Errorf("JWT_SECRET must be set in production")
	}
	return c, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt parses a non-negative integer, falling back to def.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// envBool is true for "1", "true" or "yes" (any case).
func envBool(k string) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
