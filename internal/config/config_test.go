package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
server:
  port: 8080
database:
  host: localhost
  user: postgres
  database: rental
jwt:
  secret: 0123456789abcdef0123456789abcdef
storage:
  upload_dir: /tmp/uploads
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FillsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.GRPCPort)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "none", cfg.Email.Provider)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "rental-events", cfg.Kafka.Topic)
	assert.Equal(t, int32(100), cfg.Billing.OutboxRelayBatchSize)
	assert.Equal(t, "0.1", cfg.Billing.LateFeeFraction().String())
	assert.NotEmpty(t, cfg.Scheduler.UpdateLateFees)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("APP_ENV", "Production")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.IsProduction())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		patch func(c *Config)
		want  string
	}{
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 32"},
		{"bad late fee", func(c *Config) { c.Billing.LateFeeRate = "ten percent" }, "late fee rate"},
		{"negative late fee", func(c *Config) { c.Billing.LateFeeRate = "-0.5" }, "late fee rate"},
		{"smtp without host", func(c *Config) { c.Email.Provider = "smtp" }, "SMTP host"},
		{"push without credentials", func(c *Config) { c.Push.Enabled = true }, "credentials"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "s3" }, "storage type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Server:   ServerConfig{Port: 8080},
				Database: DatabaseConfig{Host: "h", User: "u", Database: "d"},
				JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
				Storage:  StorageConfig{UploadDir: "/tmp"},
			}
			tt.patch(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("GET", "/api/v1/products"))
	assert.Equal(t, SecurityAdmin, GetSecurityLevel("GET", "/api/v1/deliveries/{id}"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("GET", "/api/v1/unlisted"))
}
