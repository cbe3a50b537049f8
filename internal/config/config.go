package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Email     EmailConfig     `yaml:"email"`
	Push      PushConfig      `yaml:"push"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Billing   BillingConfig   `yaml:"billing"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains REST and gRPC listener settings
type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	GRPCPort           int      `yaml:"grpc_port"`
	Environment        string   `yaml:"environment"` // "development" or "production"
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes"`
	RefreshTokenExpiry int    `yaml:"refresh_token_expiry_minutes"`
}

// EmailConfig selects and configures the outbound email provider
type EmailConfig struct {
	Provider       string     `yaml:"provider"` // "smtp", "sendgrid" or "none"
	From           string     `yaml:"from"`
	FromName       string     `yaml:"from_name"`
	SMTP           SMTPConfig `yaml:"smtp"`
	SendGridAPIKey string     `yaml:"sendgrid_api_key"`
}

// SMTPConfig contains SMTP server settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// PushConfig contains Firebase Cloud Messaging settings
type PushConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
}

// KafkaConfig contains domain event publishing settings
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RedisConfig contains the token denylist store settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	Type         string   `yaml:"type"`       // "local" (default)
	UploadDir    string   `yaml:"upload_dir"` // For local storage
	BaseURL      string   `yaml:"base_url"`   // Server base URL for presigned URLs
	MaxFileSize  int64    `yaml:"max_file_size_mb"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// BillingConfig contains invoice and late fee settings
type BillingConfig struct {
	GracePeriodDays      int    `yaml:"grace_period_days"`
	LateFeeRate          string `yaml:"late_fee_rate"` // decimal fraction of the daily rate, e.g. "0.1"
	MaxDailyLateFeeCents int64  `yaml:"max_daily_late_fee_cents"`
	PaymentDueDays       int    `yaml:"payment_due_days"`
	SecurityDepositCents int64  `yaml:"security_deposit_cents"`
	LowStockThreshold    int32  `yaml:"low_stock_threshold"`
	ScheduledBatchSize   int32  `yaml:"scheduled_batch_size"`
	OutboxRelayBatchSize int32  `yaml:"outbox_relay_batch_size"`
}

// LateFeeFraction returns the late fee rate as a decimal; Validate rejects unparsable values
func (b BillingConfig) LateFeeFraction() decimal.Decimal {
	rate, err := decimal.NewFromString(b.LateFeeRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// SchedulerConfig contains cron schedule settings (with seconds field)
type SchedulerConfig struct {
	ProcessScheduledNotifications string `yaml:"process_scheduled_notifications"`
	UpdateLateFees                string `yaml:"update_late_fees"`
	RelayOutboxEvents             string `yaml:"relay_outbox_events"`
	SendInstallmentReminders      string `yaml:"send_installment_reminders"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// A missing .env is fine, it only supplies overrides for local runs
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}
	if val := os.Getenv("APP_ENV"); val != "" {
		c.Server.Environment = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Email
	if val := os.Getenv("EMAIL_PROVIDER"); val != "" {
		c.Email.Provider = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.From = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.Email.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Email.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.Email.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.Email.SMTP.Password = val
	}

	// Push
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Push.CredentialsFile = val
		c.Push.Enabled = true
	}

	// Kafka
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Storage
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.JWT.RefreshTokenExpiry == 0 {
		c.JWT.RefreshTokenExpiry = 7 * 24 * 60
	}

	// Email validation
	switch c.Email.Provider {
	case "":
		c.Email.Provider = "none"
	case "none":
	case "smtp":
		if c.Email.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.Email.SMTP.Port <= 0 || c.Email.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.Email.SMTP.Port)
		}
	case "sendgrid":
		if c.Email.SendGridAPIKey == "" {
			return fmt.Errorf("SendGrid API key is required")
		}
	default:
		return fmt.Errorf("unknown email provider: %s", c.Email.Provider)
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Rental Marketplace"
	}

	if c.Push.Enabled && c.Push.CredentialsFile == "" {
		return fmt.Errorf("firebase credentials file is required when push is enabled")
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "rental-events"
	}

	// Storage validation
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	switch c.Storage.Type {
	case "":
		c.Storage.Type = "local"
	case "local":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 10
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}

	// Billing defaults
	if c.Billing.GracePeriodDays == 0 {
		c.Billing.GracePeriodDays = 1
	}
	if c.Billing.LateFeeRate == "" {
		c.Billing.LateFeeRate = "0.1"
	}
	if rate, err := decimal.NewFromString(c.Billing.LateFeeRate); err != nil || rate.IsNegative() {
		return fmt.Errorf("invalid late fee rate: %q", c.Billing.LateFeeRate)
	}
	if c.Billing.MaxDailyLateFeeCents == 0 {
		c.Billing.MaxDailyLateFeeCents = 5000 // $50.00
	}
	if c.Billing.PaymentDueDays == 0 {
		c.Billing.PaymentDueDays = 7
	}
	if c.Billing.LowStockThreshold == 0 {
		c.Billing.LowStockThreshold = 2
	}
	if c.Billing.ScheduledBatchSize == 0 {
		c.Billing.ScheduledBatchSize = 100
	}
	if c.Billing.OutboxRelayBatchSize == 0 {
		c.Billing.OutboxRelayBatchSize = 100
	}

	// Scheduler defaults
	if c.Scheduler.ProcessScheduledNotifications == "" {
		c.Scheduler.ProcessScheduledNotifications = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.UpdateLateFees == "" {
		c.Scheduler.UpdateLateFees = "0 0 1 * * *" // 1 AM UTC
	}
	if c.Scheduler.RelayOutboxEvents == "" {
		c.Scheduler.RelayOutboxEvents = "*/30 * * * * *" // every 30 seconds
	}
	if c.Scheduler.SendInstallmentReminders == "" {
		c.Scheduler.SendInstallmentReminders = "0 0 9 * * *" // 9 AM UTC
	}

	return nil
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the REST server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health server address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
