package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// StoreDriver selects the storage realization
type StoreDriver string

const (
	// StoreDriverPostgres persists witnesses in PostgreSQL
	StoreDriverPostgres StoreDriver = "postgres"
	// StoreDriverMemory keeps everything in process memory (development and tests)
	StoreDriverMemory StoreDriver = "memory"
)

// Transport selects how notifications leave the process
type Transport string

const (
	TransportLog     Transport = "log"
	TransportWebhook Transport = "webhook"
	TransportNATS    Transport = "nats"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          StoreDriver   `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	Subject        string        `mapstructure:"subject"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds

	// AllowedOrigins restricts CORS; empty allows every origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds authentication configuration for administrative routes
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// RegistryConfig holds the covenant parameters
type RegistryConfig struct {
	// Target is the population the covenant is waiting for
	Target int `mapstructure:"target"`
	// Capacity caps the number of accepted witnesses (0 = unlimited)
	Capacity int `mapstructure:"capacity"`
	// Deadline is an RFC3339 timestamp; its offset defines the countdown calendar
	Deadline string `mapstructure:"deadline"`
	// MilestoneThresholds is the ascending list of populations that trigger a broadcast
	MilestoneThresholds []int `mapstructure:"milestone_thresholds"`
}

// DeadlineTime parses the configured deadline
func (c *RegistryConfig) DeadlineTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, c.Deadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid registry.deadline %q: %w", c.Deadline, err)
	}
	return t, nil
}

// AllocationConfig bounds the retry loop around sequence allocation
type AllocationConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// WebhookConfig holds the relay endpoint used by the webhook transport
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NotificationConfig holds notification dispatcher configuration
type NotificationConfig struct {
	Transport        Transport     `mapstructure:"transport"`
	Worker           WorkerConfig  `mapstructure:"worker"`
	ClaimTTL         time.Duration `mapstructure:"claim_ttl"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	Webhook          WebhookConfig `mapstructure:"webhook"`
}

// SweeperLoopConfig holds the periodic sweeper settings
type SweeperLoopConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// WelcomeGrace leaves freshly accepted witnesses to the API's own welcome
	WelcomeGrace       time.Duration `mapstructure:"welcome_grace"`
	WelcomeBatchSize   int           `mapstructure:"welcome_batch_size"`
	WelcomeMaxAttempts int           `mapstructure:"welcome_max_attempts"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig   `mapstructure:",squash"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Allocation   AllocationConfig   `mapstructure:"allocation"`
	Notification NotificationConfig `mapstructure:"notification"`
}

// SweeperConfig holds configuration for the sweeper program
type SweeperConfig struct {
	BaseConfig   `mapstructure:",squash"`
	Database     DatabaseConfig     `mapstructure:"database"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Notification NotificationConfig `mapstructure:"notification"`
	Sweeper      SweeperLoopConfig  `mapstructure:"sweeper"`
}

// setCommonDefaults sets the defaults shared by every program
func setCommonDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("database.driver", string(StoreDriverPostgres))
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "COVENANT_NOTIFICATIONS")
	v.SetDefault("nats.subject", "covenant.notifications")
	v.SetDefault("registry.target", 100)
	v.SetDefault("registry.capacity", 0)
	v.SetDefault("registry.deadline", "2025-10-19T00:00:00-04:00")
	v.SetDefault("registry.milestone_thresholds", []int{10, 25, 50, 75})
	v.SetDefault("notification.transport", string(TransportLog))
	v.SetDefault("notification.worker.pool_size", 8)
	v.SetDefault("notification.worker.queue_size", 1024)
	v.SetDefault("notification.claim_ttl", "5m")
	v.SetDefault("notification.batch_concurrency", 10)
	v.SetDefault("notification.webhook.timeout", "10s")
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	setCommonDefaults(v)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("allocation.max_retries", 5)
	v.SetDefault("allocation.initial_interval", "20ms")
	v.SetDefault("allocation.max_interval", "500ms")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateRegistry(&config.Registry); err != nil {
		return nil, err
	}
	if err := validateNotification(&config.Notification, &config.NATS); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadSweeperConfig loads configuration for the sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	setCommonDefaults(v)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("sweeper.interval", "15m")
	v.SetDefault("sweeper.welcome_grace", "10m")
	v.SetDefault("sweeper.welcome_batch_size", 100)
	v.SetDefault("sweeper.welcome_max_attempts", 5)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Driver != StoreDriverPostgres {
		return nil, errors.New("sweeper requires database.driver=postgres")
	}
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if cfg.Sweeper.Interval <= 0 {
		return nil, errors.New("sweeper.interval must be positive")
	}
	if err := validateRegistry(&cfg.Registry); err != nil {
		return nil, err
	}
	if err := validateNotification(&cfg.Notification, &cfg.NATS); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readConfig reads the config file, tolerating a missing one so env vars alone can drive the program
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func validateRegistry(c *RegistryConfig) error {
	if c.Target <= 0 {
		return errors.New("registry.target must be positive")
	}
	if c.Capacity < 0 {
		return errors.New("registry.capacity must not be negative")
	}
	if _, err := c.DeadlineTime(); err != nil {
		return err
	}
	for i := 1; i < len(c.MilestoneThresholds); i++ {
		if c.MilestoneThresholds[i] <= c.MilestoneThresholds[i-1] {
			return errors.New("registry.milestone_thresholds must be strictly ascending")
		}
	}
	return nil
}

func validateNotification(c *NotificationConfig, n *NATSConfig) error {
	switch c.Transport {
	case TransportLog:
	case TransportWebhook:
		if c.Webhook.URL == "" {
			return errors.New("notification.webhook.url is required for the webhook transport")
		}
	case TransportNATS:
		if n.URL == "" {
			return errors.New("nats.url is required for the nats transport")
		}
	default:
		return fmt.Errorf("unknown notification.transport %q", c.Transport)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/sweeper/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("COVENANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.driver",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allowed_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Registry
		"registry.target",
		"registry.capacity",
		"registry.deadline",
		"registry.milestone_thresholds",
		// Allocation
		"allocation.max_retries",
		"allocation.initial_interval",
		"allocation.max_interval",
		// Notification
		"notification.transport",
		"notification.worker.pool_size",
		"notification.worker.queue_size",
		"notification.claim_ttl",
		"notification.batch_concurrency",
		"notification.webhook.url",
		"notification.webhook.secret",
		"notification.webhook.timeout",
		// Sweeper
		"sweeper.interval",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
