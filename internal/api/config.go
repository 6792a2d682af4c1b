package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/tasksync/internal/store"
)

// Config holds the server configuration, loaded from environment variables.
type Config struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
	AllowSignup     bool
	TokenTTL        time.Duration // lifetime of tokens issued by auth endpoints

	DBDriver     string // "sqlite" (default) or "postgres"
	DBPath       string // sqlite database file
	DBURL        string // postgres connection string
	DBMaxOpen    int
	DBMaxIdle    int

	LogFormat string // "json" (default) or "text"
	LogLevel  string // "debug", "info" (default), "warn", "error"
	LogFile   string // rotating log file; empty logs to stderr

	RateLimitAuth  int // /v1/auth/* per IP per minute (default: 10)
	RateLimitPush  int // /v1/sync/push per token per minute (default: 60)
	RateLimitPull  int // /v1/sync/pull per token per minute (default: 120)
	RateLimitOther int // all other authed endpoints per token per minute (default: 300)

	CORSAllowedOrigins []string // allowed origins; empty = CORS disabled
}

// LoadConfig reads configuration from environment variables with defaults.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:      ":8080",
		ShutdownTimeout: 30 * time.Second,
		AllowSignup:     true,
		TokenTTL:        7 * 24 * time.Hour,

		DBDriver: store.DriverSQLite,
		DBPath:   "./data/tasksync.db",

		LogFormat: "json",
		LogLevel:  "info",

		RateLimitAuth:  10,
		RateLimitPush:  60,
		RateLimitPull:  120,
		RateLimitOther: 300,
	}

	if v := os.Getenv("TASKSYNC_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TASKSYNC_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("TASKSYNC_ALLOW_SIGNUP"); v == "false" || v == "0" {
		cfg.AllowSignup = false
	}
	if v := os.Getenv("TASKSYNC_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TokenTTL = d
		}
	}

	if v := os.Getenv("TASKSYNC_DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("TASKSYNC_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TASKSYNC_DB_URL"); v != "" {
		cfg.DBURL = v
	}
	if v := os.Getenv("TASKSYNC_DB_MAX_OPEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DBMaxOpen = n
		}
	}
	if v := os.Getenv("TASKSYNC_DB_MAX_IDLE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DBMaxIdle = n
		}
	}

	if v := os.Getenv("TASKSYNC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TASKSYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKSYNC_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if v := os.Getenv("TASKSYNC_RATE_LIMIT_AUTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitAuth = n
		}
	}
	if v := os.Getenv("TASKSYNC_RATE_LIMIT_PUSH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitPush = n
		}
	}
	if v := os.Getenv("TASKSYNC_RATE_LIMIT_PULL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitPull = n
		}
	}
	if v := os.Getenv("TASKSYNC_RATE_LIMIT_OTHER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitOther = n
		}
	}

	if v := os.Getenv("TASKSYNC_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return cfg
}

// StoreConfig maps the server configuration onto store.Config.
func (c Config) StoreConfig() store.Config {
	return store.Config{
		Driver:       c.DBDriver,
		Path:         c.DBPath,
		URL:          c.DBURL,
		MaxOpenConns: c.DBMaxOpen,
		MaxIdleConns: c.DBMaxIdle,
	}
}
