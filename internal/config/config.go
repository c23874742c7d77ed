package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Auth       AuthConfig       `mapstructure:"auth"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Uploads    UploadsConfig    `mapstructure:"uploads"`
	Newsletter NewsletterConfig `mapstructure:"newsletter"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// AuthConfig contains JWT signing material and token lifetimes.
type AuthConfig struct {
	PrivateKeyPath        string `mapstructure:"private_key_path"`
	PublicKeyPath         string `mapstructure:"public_key_path"`
	AccessTTLMinutes      int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLHours       int    `mapstructure:"refresh_ttl_hours"`
	LoginRateLimitPerHour int    `mapstructure:"login_rate_limit_per_hour"`
	LoginLockThreshold    int    `mapstructure:"login_lock_threshold"`
	LoginLockMinutes      int    `mapstructure:"login_lock_minutes"`
	CookieDomain          string `mapstructure:"cookie_domain"`
}

// SMTPConfig contains outbound mail settings used by the newsletter worker.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// UploadsConfig bounds media uploads.
type UploadsConfig struct {
	MaxBytes  int64  `mapstructure:"max_bytes"`
	ClamdAddr string `mapstructure:"clamd_addr"`
}

// NewsletterConfig tunes the subscription flow.
type NewsletterConfig struct {
	WelcomeSubject string `mapstructure:"welcome_subject"`
}

// AccessTTL returns the access token lifetime.
func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTTLHours) * time.Hour
}

// LoginLockTTL returns how long an account stays locked after repeated
// failed logins.
func (a AuthConfig) LoginLockTTL() time.Duration {
	return time.Duration(a.LoginLockMinutes) * time.Minute
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr returns the host:port form used by Redis clients.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "healthhive")
	v.SetDefault("database.user", "healthhive")
	v.SetDefault("database.password", "healthhive")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "media")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("auth.private_key_path", "keys/jwt_private.pem")
	v.SetDefault("auth.public_key_path", "keys/jwt_public.pem")
	v.SetDefault("auth.access_ttl_minutes", 15)
	v.SetDefault("auth.refresh_ttl_hours", 720)
	v.SetDefault("auth.login_rate_limit_per_hour", 10)
	v.SetDefault("auth.login_lock_threshold", 5)
	v.SetDefault("auth.login_lock_minutes", 15)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("uploads.max_bytes", 5*1024*1024)
	v.SetDefault("newsletter.welcome_subject", "Welcome to HealthHive")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                       "API_PORT",
		"api.allowed_origins":            "API_ALLOWED_ORIGINS",
		"database.host":                  "DATABASE_HOST",
		"database.port":                  "DATABASE_PORT",
		"database.name":                  "POSTGRES_DB",
		"database.user":                  "POSTGRES_USER",
		"database.password":              "POSTGRES_PASSWORD",
		"database.sslmode":               "DATABASE_SSLMODE",
		"redis.host":                     "REDIS_HOST",
		"redis.port":                     "REDIS_PORT",
		"minio.endpoint":                 "MINIO_ENDPOINT",
		"minio.access_key_id":            "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":        "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                  "MINIO_USE_SSL",
		"minio.bucket":                   "MINIO_BUCKET",
		"minio.auto_create_bucket":       "MINIO_AUTO_CREATE_BUCKET",
		"auth.private_key_path":          "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":           "AUTH_PUBLIC_KEY_PATH",
		"auth.access_ttl_minutes":        "AUTH_ACCESS_TTL_MINUTES",
		"auth.refresh_ttl_hours":         "AUTH_REFRESH_TTL_HOURS",
		"auth.login_rate_limit_per_hour": "AUTH_LOGIN_RATE_LIMIT_PER_HOUR",
		"auth.login_lock_threshold":      "AUTH_LOGIN_LOCK_THRESHOLD",
		"auth.login_lock_minutes":        "AUTH_LOGIN_LOCK_MINUTES",
		"auth.cookie_domain":             "AUTH_COOKIE_DOMAIN",
		"smtp.host":                      "SMTP_HOST",
		"smtp.port":                      "SMTP_PORT",
		"smtp.username":                  "SMTP_USERNAME",
		"smtp.password":                  "SMTP_PASSWORD",
		"smtp.from":                      "SMTP_FROM",
		"uploads.max_bytes":              "UPLOADS_MAX_BYTES",
		"uploads.clamd_addr":             "CLAMD_ADDR",
		"newsletter.welcome_subject":     "NEWSLETTER_WELCOME_SUBJECT",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Auth.PrivateKeyPath == "" || cfg.Auth.PublicKeyPath == "" {
		return errors.New("auth key paths are required")
	}
	if cfg.Auth.AccessTTLMinutes <= 0 || cfg.Auth.RefreshTTLHours <= 0 {
		return errors.New("auth token lifetimes must be positive")
	}
	if cfg.Uploads.MaxBytes <= 0 {
		return errors.New("uploads max bytes must be positive")
	}
	return nil
}
