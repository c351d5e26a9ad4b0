package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	Mail         MailConfig
	Notification NotificationConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	IdempotencyTTL time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	Schema       string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the pgx connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.Schema)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

// AdminConfig holds the single storefront administrator credentials.
// PasswordHash is a bcrypt hash; the plaintext never lives in config.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

type MailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminInbox string
	Timeout    time.Duration
	MaxRetries uint64
}

// Notification delivery modes
const (
	NotifyModeOutbox = "outbox"
	NotifyModeDirect = "direct"
)

type NotificationConfig struct {
	Mode            string
	PollInterval    time.Duration
	BatchSize       int
	MaxAttempts     int
	Lease           time.Duration
	DispatchTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func Load() *Config {
	// .env only fills variables that are not already set in the environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", 60)
	v.SetDefault("ADMIN_EMAIL", "info.aromatales@gmail.com")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_TIMEOUT", "15s")
	v.SetDefault("SMTP_MAX_RETRIES", 3)
	v.SetDefault("EMAIL_USER", "info.aromatales@gmail.com")
	v.SetDefault("NOTIFY_MODE", NotifyModeOutbox)
	v.SetDefault("NOTIFY_POLL_INTERVAL", "2s")
	v.SetDefault("NOTIFY_BATCH_SIZE", 20)
	v.SetDefault("NOTIFY_MAX_ATTEMPTS", 5)
	v.SetDefault("NOTIFY_LEASE", "1m")
	v.SetDefault("NOTIFY_DISPATCH_TIMEOUT", "30s")
	v.SetDefault("FRONTEND_URL", "*")
	v.SetDefault("RATE_LIMIT_REQUESTS", 120)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	from := v.GetString("EMAIL_FROM")
	if from == "" {
		from = v.GetString("EMAIL_USER")
	}
	adminInbox := v.GetString("ADMIN_INBOX")
	if adminInbox == "" {
		adminInbox = v.GetString("EMAIL_USER")
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Database:     v.GetString("DB_DATABASE"),
			Schema:       v.GetString("DB_SCHEMA"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: v.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Admin: AdminConfig{
			Email:        v.GetString("ADMIN_EMAIL"),
			PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		},
		Mail: MailConfig{
			Host:       v.GetString("SMTP_HOST"),
			Port:       v.GetInt("SMTP_PORT"),
			Username:   v.GetString("EMAIL_USER"),
			Password:   firstNonEmpty(v.GetString("EMAIL_PASSWORD"), v.GetString("GMAIL_APP_PASSWORD")),
			From:       from,
			AdminInbox: adminInbox,
			Timeout:    v.GetDuration("SMTP_TIMEOUT"),
			MaxRetries: v.GetUint64("SMTP_MAX_RETRIES"),
		},
		Notification: NotificationConfig{
			Mode:            strings.ToLower(v.GetString("NOTIFY_MODE")),
			PollInterval:    v.GetDuration("NOTIFY_POLL_INTERVAL"),
			BatchSize:       v.GetInt("NOTIFY_BATCH_SIZE"),
			MaxAttempts:     v.GetInt("NOTIFY_MAX_ATTEMPTS"),
			Lease:           v.GetDuration("NOTIFY_LEASE"),
			DispatchTimeout: v.GetDuration("NOTIFY_DISPATCH_TIMEOUT"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("FRONTEND_URL")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
