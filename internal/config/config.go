package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by Load.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config aggregates runtime configuration for the scheduler.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Store    StoreConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Ops      OpsConfig
}

// AppConfig controls shell level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Version               string
	CancelEnabled         bool
	CommandTimeoutSeconds int
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

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver       string
	MaxTxRetries int
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	EventsStream string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Output string
}

// AuthConfig defines password hashing parameters.
type AuthConfig struct {
	PBKDF2Iterations int
	SaltBytes        int
	KeyBytes         int
}

// OpsConfig controls the health and metrics listener. An empty Addr disables it.
type OpsConfig struct {
	Addr string
}

// Load reads configuration from environment variables, applying defaults where possible.
// envFiles are passed to godotenv; with none, a .env in the working directory is tried.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres))
	if driver != StoreDriverPostgres && driver != StoreDriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "vaccine-scheduler"),
			Env:                   getEnv("APP_ENV", "development"),
			Version:               getEnv("APP_VERSION", "dev"),
			CancelEnabled:         getEnvAsBool("APP_CANCEL_ENABLED", true),
			CommandTimeoutSeconds: getEnvAsInt("APP_COMMAND_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Store: StoreConfig{
			Driver:       driver,
			MaxTxRetries: getEnvAsInt("STORE_MAX_TX_RETRIES", 5),
		},
		Redis: RedisConfig{
			Addr:         os.Getenv("REDIS_ADDR"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           redisDB,
			EventsStream: getEnv("REDIS_EVENTS_STREAM", "vaccine-scheduler:events"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: getEnv("LOG_OUTPUT", "stderr"),
		},
		Auth: AuthConfig{
			PBKDF2Iterations: getEnvAsInt("AUTH_PBKDF2_ITERATIONS", 10000),
			SaltBytes:        getEnvAsInt("AUTH_SALT_BYTES", 16),
			KeyBytes:         getEnvAsInt("AUTH_KEY_BYTES", 16),
		},
		Ops: OpsConfig{
			Addr: os.Getenv("OPS_HTTP_ADDR"),
		},
	}

	return cfg, nil
}

// CommandTimeout returns the per-command deadline, or 0 for none.
func (a AppConfig) CommandTimeout() time.Duration {
	if a.CommandTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.CommandTimeoutSeconds) * time.Second
}

// Enabled reports whether Redis is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// Enabled reports whether the ops listener should start.
func (o OpsConfig) Enabled() bool {
	return strings.TrimSpace(o.Addr) != ""
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
