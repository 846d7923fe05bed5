package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

// Index drivers.
const (
	IndexDriverSQLite   = "sqlite"
	IndexDriverPostgres = "postgres"
)

// Registry backends.
const (
	RegistryBackendMemory = "memory"
	RegistryBackendRedis  = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Classifier   ClassifierConfig
	TicketStore  TicketStoreConfig
	Index        IndexConfig
	Postgres     PostgresConfig
	SQLite       SQLiteConfig
	Registry     RegistryConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ClassifierConfig points at the remote text-classification service.
type ClassifierConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// TicketStoreConfig points at the remote ticket tracker.
type TicketStoreConfig struct {
	BaseURL        string
	APIToken       string
	ProjectID      int
	Category       string
	TimeoutSeconds int
}

// IndexConfig selects the local ticket index engine.
type IndexConfig struct {
	Driver string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// SQLiteConfig holds the embedded index location.
type SQLiteConfig struct {
	Path string
}

// RegistryConfig controls the escalation offer registry.
type RegistryConfig struct {
	Backend              string
	OfferTTLMinutes      int
	MaxOffers            int
	SweepIntervalSeconds int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig defines authentication parameters for the chat bridge.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	APIKeyHash            string
}

// NotificationConfig holds the optional event webhook.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	projectID, err := strconv.Atoi(getEnv("MANTIS_PROJECT_ID", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid MANTIS_PROJECT_ID: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-triage"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 90),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 7),
		},
		Classifier: ClassifierConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			BaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			TimeoutSeconds: getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 30),
		},
		TicketStore: TicketStoreConfig{
			BaseURL:        os.Getenv("MANTIS_BASE_URL"),
			APIToken:       os.Getenv("MANTIS_API_TOKEN"),
			ProjectID:      projectID,
			Category:       getEnv("MANTIS_CATEGORY", "Washing Machine Support"),
			TimeoutSeconds: getEnvAsInt("TICKET_STORE_TIMEOUT_SECONDS", 30),
		},
		Index: IndexConfig{
			Driver: strings.ToLower(getEnv("INDEX_DRIVER", IndexDriverSQLite)),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "triage_tickets.db"),
		},
		Registry: RegistryConfig{
			Backend:              strings.ToLower(getEnv("REGISTRY_BACKEND", RegistryBackendMemory)),
			OfferTTLMinutes:      getEnvAsInt("OFFER_TTL_MINUTES", 1440),
			MaxOffers:            getEnvAsInt("OFFER_MAX_ENTRIES", 10000),
			SweepIntervalSeconds: getEnvAsInt("OFFER_SWEEP_INTERVAL_SECONDS", 300),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60*24*30),
			APIKeyHash:            os.Getenv("AUTH_API_KEY_HASH"),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Validate reports every required setting that is missing or unusable.
func (c *Config) Validate() error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	require("GEMINI_API_KEY", c.Classifier.APIKey)
	require("MANTIS_BASE_URL", c.TicketStore.BaseURL)
	require("MANTIS_API_TOKEN", c.TicketStore.APIToken)

	switch c.Index.Driver {
	case IndexDriverPostgres:
		require("POSTGRES_DSN", c.Postgres.DSN)
	case IndexDriverSQLite:
		require("SQLITE_PATH", c.SQLite.Path)
	default:
		missing = append(missing, "INDEX_DRIVER (sqlite|postgres)")
	}

	switch c.Registry.Backend {
	case RegistryBackendRedis:
		require("REDIS_ADDR", c.Redis.Addr)
	case RegistryBackendMemory:
	default:
		missing = append(missing, "REGISTRY_BACKEND (memory|redis)")
	}

	if len(missing) > 0 {
		return apperrors.NewConfigurationMissing(missing)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout bounds a single classification call.
func (c ClassifierConfig) Timeout() time.Duration {
	return secondsOrDefault(c.TimeoutSeconds, 30)
}

// Timeout bounds a single ticket store call.
func (c TicketStoreConfig) Timeout() time.Duration {
	return secondsOrDefault(c.TimeoutSeconds, 30)
}

// OfferTTL is how long an escalation offer stays redeemable.
func (r RegistryConfig) OfferTTL() time.Duration {
	if r.OfferTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(r.OfferTTLMinutes) * time.Minute
}

// SweepInterval is the period of the in-memory offer sweeper.
func (r RegistryConfig) SweepInterval() time.Duration {
	return secondsOrDefault(r.SweepIntervalSeconds, 300)
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
