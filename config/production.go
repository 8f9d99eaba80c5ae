// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/StevenOng97/backend-saas/utils"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Security SecurityConfig `json:"security"`
	Twilio   TwilioConfig   `json:"twilio"`
	SendGrid SendGridConfig `json:"sendgrid"`
	Queue    QueueConfig    `json:"queue"`
	Sweeper  SweeperConfig  `json:"sweeper"`
	Quota    QuotaConfig    `json:"quota"`
	Frontend FrontendConfig `json:"frontend"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
	Cache    CacheConfig    `json:"cache"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	BodyLimit         int           `json:"body_limit"`
	EnableMetrics     bool          `json:"enable_metrics"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
}

type SecurityConfig struct {
	// CORS
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	// Rate Limiting
	PublicRateLimit int           `json:"public_rate_limit"` // requests per window on public rating endpoints
	GlobalRateLimit int           `json:"global_rate_limit"` // requests per window
	RateLimitWindow time.Duration `json:"rate_limit_window"`

	// Webhook validation
	WebhookAuthToken string `json:"webhook_auth_token"`
}

type TwilioConfig struct {
	AccountSID          string        `json:"account_sid"`
	AuthToken           string        `json:"auth_token"`
	MessagingServiceSID string        `json:"messaging_service_sid"`
	StatusCallbackURL   string        `json:"status_callback_url"`
	APIBase             string        `json:"api_base"`
	Timeout             time.Duration `json:"timeout"`
}

type SendGridConfig struct {
	APIKey    string `json:"api_key"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

type QueueConfig struct {
	KeyPrefix         string        `json:"key_prefix"`
	Concurrency       int           `json:"concurrency"`
	MaxAttempts       int           `json:"max_attempts"`
	BackoffBase       time.Duration `json:"backoff_base"`
	PromoteInterval   time.Duration `json:"promote_interval"`
	VisibilityTimeout time.Duration `json:"visibility_timeout"`
	DeadLetterLimit   int           `json:"dead_letter_limit"`
}

type SweeperConfig struct {
	Interval time.Duration `json:"interval"`
	MinAge   time.Duration `json:"min_age"`
}

type QuotaConfig struct {
	MonthlyInviteLimit int64 `json:"monthly_invite_limit"`
}

type FrontendConfig struct {
	BaseURL string `json:"base_url"`
}

type LoggingConfig struct {
	Level      string `json:"level"`
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	WorkerDir  string `json:"worker_dir"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	RedisURL      string `json:"redis_url"`
	RedisDB       int    `json:"redis_db"`
	RedisPassword string `json:"redis_password"`
	RedisPrefix   string `json:"redis_prefix"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "postgres"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
		},
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 4*1024*1024), // 4MB
			EnableMetrics:     getEnvBool("SERVER_ENABLE_METRICS", true),
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
		},
		Security: SecurityConfig{
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
			CORSMaxAge:       getEnvInt("CORS_MAX_AGE", 86400),
			PublicRateLimit:  getEnvInt("PUBLIC_RATE_LIMIT", 60),
			GlobalRateLimit:  getEnvInt("GLOBAL_RATE_LIMIT", 2000),
			RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			WebhookAuthToken: getEnvString("WEBHOOK_AUTH_TOKEN", ""),
		},
		Twilio: TwilioConfig{
			AccountSID:          getEnvString("TWILIO_ACCOUNT_SID", ""),
			AuthToken:           getEnvString("TWILIO_AUTH_TOKEN", ""),
			MessagingServiceSID: getEnvString("TWILIO_MESSAGING_SERVICE_SID", ""),
			StatusCallbackURL:   getEnvString("TWILIO_STATUS_CALLBACK_URL", ""),
			APIBase:             getEnvString("TWILIO_API_BASE", ""),
			Timeout:             getEnvDuration("TWILIO_TIMEOUT", 30*time.Second),
		},
		SendGrid: SendGridConfig{
			APIKey:    getEnvString("SENDGRID_API_KEY", ""),
			FromEmail: getEnvString("SENDGRID_FROM_EMAIL", "noreply@example.com"),
			FromName:  getEnvString("SENDGRID_FROM_NAME", "Review Invites"),
		},
		Queue: QueueConfig{
			KeyPrefix:         getEnvString("QUEUE_KEY_PREFIX", "dispatch"),
			Concurrency:       getEnvInt("QUEUE_CONCURRENCY", 5),
			MaxAttempts:       getEnvInt("QUEUE_MAX_ATTEMPTS", utils.DispatchMaxAttempts),
			BackoffBase:       getEnvDuration("QUEUE_BACKOFF_BASE", utils.DispatchBackoffBase),
			PromoteInterval:   getEnvDuration("QUEUE_PROMOTE_INTERVAL", 1*time.Second),
			VisibilityTimeout: getEnvDuration("QUEUE_VISIBILITY_TIMEOUT", 2*time.Minute),
			DeadLetterLimit:   getEnvInt("QUEUE_DEAD_LETTER_LIMIT", 1000),
		},
		Sweeper: SweeperConfig{
			Interval: getEnvDuration("SWEEPER_INTERVAL", 5*time.Minute),
			MinAge:   getEnvDuration("SWEEPER_MIN_AGE", 10*time.Minute),
		},
		Quota: QuotaConfig{
			MonthlyInviteLimit: int64(getEnvInt("QUOTA_MONTHLY_INVITE_LIMIT", 0)),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnvString("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Output:     getEnvString("LOG_OUTPUT", "both"),
			FilePath:   getEnvString("LOG_FILE_PATH", "data/app.log"),
			WorkerDir:  getEnvString("LOG_WORKER_DIR", "data"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			RedisURL:      getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:       getEnvInt("CACHE_REDIS_DB", 0),
			RedisPassword: getEnvString("REDIS_PASSWORD", ""),
			RedisPrefix:   getEnvString("CACHE_REDIS_PREFIX", "saas:"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Environment variables already set win over .env entries
				if _, exists := os.LookupEnv(key); !exists {
					os.Setenv(key, value)
				}
			}
		}
	}

	return scanner.Err()
}

// ValidateProductionConfig checks settings that have no safe default
func ValidateProductionConfig(cfg *ProductionConfig) error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}
	if cfg.Frontend.BaseURL == "" {
		return fmt.Errorf("frontend base URL is required")
	}
	if env := getEnvString("APP_ENV", "development"); env == "production" {
		if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" {
			return fmt.Errorf("twilio credentials are required in production")
		}
		if cfg.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid API key is required in production")
		}
		if cfg.Database.Password == "" {
			return fmt.Errorf("database password is required in production")
		}
	}
	return nil
}

// DSN builds the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
