package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Chat     ChatConfig
	Captcha  CaptchaConfig
	Session  SessionConfig
	Worker   WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/survey?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds service-token signing settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// ChatConfig points at the transport adapter that owns the chat platform connection.
type ChatConfig struct {
	BaseURL     string // outbound callbacks (send, delete); empty disables delivery
	Token       string // bearer token presented to the adapter
	Timeout     time.Duration
	NativePolls bool
}

// CaptchaConfig tunes the anti-automation gate.
type CaptchaConfig struct {
	MinAnswered    int
	EveryNth       int
	Probability    float64
	SuppressWindow time.Duration
}

// SessionConfig controls per-identity serialization and the store backend.
type SessionConfig struct {
	StoreDriver string // "postgres" or "memory"
	LockTTL     time.Duration
	LockWait    time.Duration
}

// WorkerConfig names the job queues.
type WorkerConfig struct {
	CompletionQueue string
	DeadLetterQueue string
	MaxRetries      int
	RetryBackoff    time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// UseMemory reports whether stores run in process memory instead of Postgres.
func (c SessionConfig) UseMemory() bool {
	return strings.EqualFold(c.StoreDriver, "memory")
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "survey"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 0)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Chat: ChatConfig{
			BaseURL:     strings.TrimRight(getEnv("CHAT_BASE_URL", ""), "/"),
			Token:       getEnv("CHAT_TOKEN", ""),
			Timeout:     getEnvDuration("CHAT_TIMEOUT", 10*time.Second),
			NativePolls: getEnvBool("CHAT_NATIVE_POLLS", false),
		},
		Captcha: CaptchaConfig{
			MinAnswered:    getEnvInt("CAPTCHA_MIN_ANSWERED", 2),
			EveryNth:       getEnvInt("CAPTCHA_EVERY_NTH", 5),
			Probability:    getEnvFloat("CAPTCHA_PROBABILITY", 0.30),
			SuppressWindow: getEnvDuration("CAPTCHA_SUPPRESS_WINDOW", 30*time.Second),
		},
		Session: SessionConfig{
			StoreDriver: getEnv("STORE_DRIVER", "postgres"),
			LockTTL:     getEnvDuration("SESSION_LOCK_TTL", 30*time.Second),
			LockWait:    getEnvDuration("SESSION_LOCK_WAIT", 5*time.Second),
		},
		Worker: WorkerConfig{
			CompletionQueue: getEnv("WORKER_COMPLETION_QUEUE", "worker:completions"),
			DeadLetterQueue: getEnv("WORKER_DLQ", "worker:dlq"),
			MaxRetries:      getEnvInt("WORKER_MAX_RETRIES", 3),
			RetryBackoff:    getEnvDuration("WORKER_RETRY_BACKOFF", 10*time.Second),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if p := c.Captcha.Probability; p < 0 || p > 1 {
		return fmt.Errorf("CAPTCHA_PROBABILITY must be within [0,1], got %v", p)
	}
	switch strings.ToLower(c.Session.StoreDriver) {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.Session.StoreDriver)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
