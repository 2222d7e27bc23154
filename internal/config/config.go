package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // billing time zones must resolve on minimal images

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Push      PushConfig      `yaml:"push"`
	Redis     RedisConfig     `yaml:"redis"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Storage   StorageConfig   `yaml:"storage"`
	Billing   BillingConfig   `yaml:"billing"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
	// RunScheduler starts the cron jobs inside the server process
	RunScheduler   bool     `yaml:"run_scheduler"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	User                string `yaml:"user"`
	Password            string `yaml:"password"`
	Database            string `yaml:"database"`
	SSLMode             string `yaml:"ssl_mode"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds"`
	MaxOpenConns        int    `yaml:"max_open_conns"`
	AutoMigrate         bool   `yaml:"auto_migrate"`
}

// JWTConfig contains access token settings. Tokens are issued by the
// auth service; this backend only validates them.
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PushConfig contains the realtime channel and client poll settings
type PushConfig struct {
	WriteTimeoutMillis  int `yaml:"write_timeout_ms"`
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	MaxPollFailures     int `yaml:"max_poll_failures"` // 0 means retry forever
}

// RedisConfig enables the distributed payment submission lock
type RedisConfig struct {
	Addr           string `yaml:"addr"` // empty disables redis, an in-process lock is used
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

// FirebaseConfig enables FCM push delivery alongside the websocket hub
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"` // empty disables FCM
	ProjectID       string `yaml:"project_id"`
}

// SendGridConfig enables e-mail notices for settled payments
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"` // empty logs notices instead of sending
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// StorageConfig contains receipt archive settings
type StorageConfig struct {
	Type      string `yaml:"type"`       // "local" or "gcs"
	UploadDir string `yaml:"upload_dir"` // for local storage
	Bucket    string `yaml:"bucket"`     // for gcs
}

// BillingConfig contains the rent cycle settings
type BillingConfig struct {
	Currency       string `yaml:"currency"`
	PhoneRegion    string `yaml:"phone_region"`
	Timezone       string `yaml:"timezone"`
	ReceiptCompany string `yaml:"receipt_company"`
	// ReceiptTheme accepts any CSS colour syntax per role
	ReceiptTheme ThemeConfig `yaml:"receipt_theme"`
}

type ThemeConfig struct {
	Text       string `yaml:"text"`
	Background string `yaml:"background"`
	Muted      string `yaml:"muted"`
	Border     string `yaml:"border"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	AgeRentals           string `yaml:"age_rentals"`
	RolloverBillingCycle string `yaml:"rollover_billing_cycle"`
}

// Load reads configuration from a YAML file. A .env file next to the
// working directory is loaded first so its values can override the YAML.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes, overrides and validates configuration bytes
func Parse(data []byte) (*Config, error) {
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

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)

	envString("JWT_SECRET", &c.JWT.Secret)

	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)

	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)

	envString("FIREBASE_CREDENTIALS_FILE", &c.Firebase.CredentialsFile)
	envString("SENDGRID_API_KEY", &c.SendGrid.APIKey)

	envString("STORAGE_TYPE", &c.Storage.Type)
	envString("UPLOAD_DIR", &c.Storage.UploadDir)
	envString("GCS_BUCKET", &c.Storage.Bucket)

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.IdleTimeoutSeconds == 0 {
		c.Server.IdleTimeoutSeconds = 120
	}

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
	if c.Database.QueryTimeoutSeconds == 0 {
		c.Database.QueryTimeoutSeconds = 5
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Push.WriteTimeoutMillis == 0 {
		c.Push.WriteTimeoutMillis = 2000
	}
	if c.Push.PollIntervalSeconds == 0 {
		c.Push.PollIntervalSeconds = 5
	}
	if c.Push.MaxPollFailures < 0 {
		return fmt.Errorf("max poll failures cannot be negative")
	}

	if c.Redis.LockTTLSeconds == 0 {
		c.Redis.LockTTLSeconds = 10
	}

	switch c.Storage.Type {
	case "", "local":
		c.Storage.Type = "local"
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("upload directory is required for local storage")
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("bucket is required for gcs storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.Billing.Currency == "" {
		c.Billing.Currency = "Ksh"
	}
	if c.Billing.PhoneRegion == "" {
		c.Billing.PhoneRegion = "KE"
	}
	if c.Billing.Timezone == "" {
		c.Billing.Timezone = "Africa/Nairobi"
	}
	if _, err := time.LoadLocation(c.Billing.Timezone); err != nil {
		return fmt.Errorf("invalid billing timezone %q: %w", c.Billing.Timezone, err)
	}
	if c.Billing.ReceiptCompany == "" {
		c.Billing.ReceiptCompany = "Tenant Portal"
	}

	if c.Scheduler.AgeRentals == "" {
		c.Scheduler.AgeRentals = "0 0 1 * * *" // 1 AM daily
	}
	if c.Scheduler.RolloverBillingCycle == "" {
		c.Scheduler.RolloverBillingCycle = "0 5 0 1 * *" // 1st of month, 00:05
	}

	return nil
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

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// QueryTimeout is the upper bound for a single database call
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeoutSeconds) * time.Second
}

// PushWriteTimeout bounds each websocket write
func (c *Config) PushWriteTimeout() time.Duration {
	return time.Duration(c.Push.WriteTimeoutMillis) * time.Millisecond
}

// PollInterval is the reconciliation poll period used by clients
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Push.PollIntervalSeconds) * time.Second
}

// Location returns the billing time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Billing.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
