package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	SMTP      SMTPConfig
	Twilio    TwilioConfig
	Sentry    SentryConfig
	Gifts     GiftsConfig
	Orders    OrdersConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
	FrontendURL  string // Used to build claim links in notification emails
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in hours
}

// SMTPConfig holds email delivery configuration
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Enabled  bool
}

// TwilioConfig holds Twilio SMS configuration
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Enabled    bool
}

// SentryConfig holds Sentry error reporting configuration
type SentryConfig struct {
	DSN     string
	Enabled bool
}

// GiftsConfig holds gift lifecycle configuration
type GiftsConfig struct {
	TTLDays              int
	MaxVerifyAttempts    int
	OrderTimeoutSeconds  int
	ReconcileGraceMins   int
	ReconcileIntervalMin int
}

// OrdersConfig holds order creation configuration
type OrdersConfig struct {
	PaymentMethod string
}

// RateLimitConfig holds verify-endpoint rate limiting configuration
type RateLimitConfig struct {
	Enabled       bool
	WindowSeconds int
	Limit         int
	RedisPrefix   string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "goattech"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Expiration: getEnvAsInt("JWT_EXPIRATION", 24),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("SMTP_FROM", "noreply@goattech.vn"),
			Enabled:  getEnvAsBool("SMTP_ENABLED", false),
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
			Enabled:    getEnvAsBool("TWILIO_ENABLED", false),
		},
		Sentry: SentryConfig{
			DSN:     getEnv("SENTRY_DSN", ""),
			Enabled: getEnvAsBool("SENTRY_ENABLED", false),
		},
		Gifts: GiftsConfig{
			TTLDays:              getEnvAsInt("GIFT_TTL_DAYS", 7),
			MaxVerifyAttempts:    getEnvAsInt("GIFT_MAX_VERIFY_ATTEMPTS", 5),
			OrderTimeoutSeconds:  getEnvAsInt("GIFT_ORDER_TIMEOUT", 5),
			ReconcileGraceMins:   getEnvAsInt("GIFT_RECONCILE_GRACE_MINUTES", 15),
			ReconcileIntervalMin: getEnvAsInt("GIFT_RECONCILE_INTERVAL_MINUTES", 10),
		},
		Orders: OrdersConfig{
			PaymentMethod: getEnv("GIFT_PAYMENT_METHOD", "gift"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW", 60),
			Limit:         getEnvAsInt("RATE_LIMIT_VERIFY_LIMIT", 10),
			RedisPrefix:   getEnv("RATE_LIMIT_PREFIX", "rl"),
		},
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection URL (used by golang-migrate)
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// TTL returns the gift validity window
func (c *GiftsConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// OrderTimeout bounds the order-collaborator call during claim
func (c *GiftsConfig) OrderTimeout() time.Duration {
	return time.Duration(c.OrderTimeoutSeconds) * time.Second
}

// ReconcileGrace is how long a claimed gift may sit without an order id
// before the reconciliation sweep picks it up
func (c *GiftsConfig) ReconcileGrace() time.Duration {
	return time.Duration(c.ReconcileGraceMins) * time.Minute
}

// ReconcileInterval is the sweep period
func (c *GiftsConfig) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalMin) * time.Minute
}

// Window returns the rate limit window as a duration
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
