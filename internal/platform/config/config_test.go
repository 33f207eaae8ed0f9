package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "blueprints.audit", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 256, cfg.Audit.BufferSize)
	assert.Equal(t, 10000, cfg.Audit.MemoryCapacity)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/blueprints")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,k1:9092,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUDIT_MEMORY_CAPACITY", "500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 500, cfg.Audit.MemoryCapacity)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BLUEPRINTS_ADDR=:9191\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BLUEPRINTS_ADDR") })

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "sqlite" }, "STORE_BACKEND"},
		{"postgres without dsn", func(c *Config) { c.StoreBackend = BackendPostgres }, "DATABASE_URL"},
		{"redis without url", func(c *Config) { c.StoreBackend = BackendRedis }, "REDIS_URL"},
		{"kafka without postgres", func(c *Config) { c.Kafka.Brokers = []string{"k:9092"} }, "KAFKA_BROKERS"},
		{"empty signing key", func(c *Config) { c.Auth.JWTSigningKey = "" }, "JWT_SIGNING_KEY"},
		{"no audit buffer", func(c *Config) { c.Audit.BufferSize = 0 }, "AUDIT_BUFFER_SIZE"},
		{"unbounded audit memory", func(c *Config) { c.Audit.MemoryCapacity = 0 }, "AUDIT_MEMORY_CAPACITY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				StoreBackend: BackendMemory,
				Auth:         AuthConfig{JWTSigningKey: "k"},
				Audit:        AuditConfig{BufferSize: 1, MemoryCapacity: 1},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
