package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"blueprints/pkg/platform/strings"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"BLUEPRINTS_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// AuthConfig holds access token settings.
type AuthConfig struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer        string        `env:"JWT_ISSUER" envDefault:"blueprints"`
	Audience      string        `env:"JWT_AUDIENCE" envDefault:"blueprints-api"`
	TokenTTL      time.Duration `env:"JWT_TOKEN_TTL" envDefault:"1h"`
}

// AuthzConfig points at the casbin policy file. An empty path starts with no policies.
type AuthzConfig struct {
	PolicyPath string `env:"AUTHZ_POLICY_PATH"`
}

// PostgresConfig configures the database/sql pool.
type PostgresConfig struct {
	DSN             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	TxTimeout       time.Duration `env:"DB_TX_TIMEOUT" envDefault:"5s"`
}

// RedisConfig configures the go-redis client.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the audit outbox relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string        `env:"KAFKA_AUDIT_TOPIC" envDefault:"blueprints.audit"`
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// AuditConfig sizes the in-process audit path. BufferSize feeds the
// asynchronous publisher for rejected transitions; MemoryCapacity bounds the
// in-memory audit store used by the memory and redis backends.
type AuditConfig struct {
	BufferSize     int `env:"AUDIT_BUFFER_SIZE" envDefault:"256"`
	MemoryCapacity int `env:"AUDIT_MEMORY_CAPACITY" envDefault:"10000"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Config is the full process configuration.
type Config struct {
	Server       Server
	Auth         AuthConfig
	Authz        AuthzConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Audit        AuditConfig
	Log          LogConfig
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
}

// Load reads optional .env files, then the environment, and validates the result.
// Values already present in the environment win over .env files.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Kafka.Brokers = strings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required when STORE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, postgres or redis, got %q", c.StoreBackend)
	}
	if c.Auth.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY must not be empty")
	}
	if c.Audit.BufferSize < 1 {
		return errors.New("AUDIT_BUFFER_SIZE must be positive")
	}
	if c.Audit.MemoryCapacity < 1 {
		return errors.New("AUDIT_MEMORY_CAPACITY must be positive")
	}
	if len(c.Kafka.Brokers) > 0 && c.StoreBackend != BackendPostgres {
		return errors.New("KAFKA_BROKERS requires STORE_BACKEND=postgres (the outbox lives in postgres)")
	}
	return nil
}
