package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Server   ServerConfig
	Identity IdentityConfig
	Links    LinksConfig
	Slack    SlackConfig
	Email    EmailConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings for the issuance rate limiter.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds admin session token settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// IdentityConfig holds the identity provider admin API settings.
type IdentityConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string //nolint:gosec // G117: provider credential config
	Timeout      time.Duration
}

// LinksConfig holds password-setup link settings.
type LinksConfig struct {
	BaseURL         string // public URL prefix the token is appended to
	TTL             time.Duration
	PerTenantLimit  int
	PerTenantWindow time.Duration
	PerAdminLimit   int
	PerAdminWindow  time.Duration
}

// SlackConfig holds the operations-alert channel settings.
type SlackConfig struct {
	BotToken   string
	OpsChannel string
}

// EmailConfig holds the outbound email delivery provider settings.
type EmailConfig struct {
	ProviderURL string
	APIKey      string //nolint:gosec // G117: delivery provider credential
	From        string
}

// Load reads configuration from environment variables. Defaults are safe for
// local development only; in production the JWT secret, DB password, and
// identity provider credentials must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("PLATEWISE_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("PLATEWISE_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("PLATEWISE_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("PLATEWISE_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("PLATEWISE_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("PLATEWISE_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("PLATEWISE_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	idpTimeout, err := getEnvDuration("PLATEWISE_IDP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	linkTTL, err := getEnvDuration("PLATEWISE_LINK_TTL", 48*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	perTenantLimit, err := getEnvInt("PLATEWISE_LINK_TENANT_LIMIT", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	perTenantWindow, err := getEnvDuration("PLATEWISE_LINK_TENANT_WINDOW", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	perAdminLimit, err := getEnvInt("PLATEWISE_LINK_ADMIN_LIMIT", 30)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	perAdminWindow, err := getEnvDuration("PLATEWISE_LINK_ADMIN_WINDOW", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("PLATEWISE_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("PLATEWISE_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("PLATEWISE_DB_USER", "platewise"),
			Password: getEnv("PLATEWISE_DB_PASSWORD", ""),
			DBName:   getEnv("PLATEWISE_DB_NAME", "platewise_dev"),
			SSLMode:  getEnv("PLATEWISE_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("PLATEWISE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("PLATEWISE_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:     getEnv("PLATEWISE_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("PLATEWISE_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Identity: IdentityConfig{
			BaseURL:      getEnv("PLATEWISE_IDP_BASE_URL", ""),
			TokenURL:     getEnv("PLATEWISE_IDP_TOKEN_URL", ""),
			ClientID:     getEnv("PLATEWISE_IDP_CLIENT_ID", ""),
			ClientSecret: getEnv("PLATEWISE_IDP_CLIENT_SECRET", ""),
			Timeout:      idpTimeout,
		},
		Links: LinksConfig{
			BaseURL:         getEnv("PLATEWISE_LINK_BASE_URL", "http://localhost:5173/setup"),
			TTL:             linkTTL,
			PerTenantLimit:  perTenantLimit,
			PerTenantWindow: perTenantWindow,
			PerAdminLimit:   perAdminLimit,
			PerAdminWindow:  perAdminWindow,
		},
		Slack: SlackConfig{
			BotToken:   getEnv("PLATEWISE_SLACK_BOT_TOKEN", ""),
			OpsChannel: getEnv("PLATEWISE_SLACK_OPS_CHANNEL", ""),
		},
		Email: EmailConfig{
			ProviderURL: getEnv("PLATEWISE_EMAIL_PROVIDER_URL", ""),
			APIKey:      getEnv("PLATEWISE_EMAIL_API_KEY", ""),
			From:        getEnv("PLATEWISE_EMAIL_FROM", "no-reply@platewise.app"),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("PLATEWISE_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("PLATEWISE_JWT_SECRET must be at least 32 characters")
	}

	if c.Identity.BaseURL == "" {
		return errors.New("PLATEWISE_IDP_BASE_URL is required")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("PLATEWISE_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("PLATEWISE_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("PLATEWISE_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("PLATEWISE_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("PLATEWISE_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Links.TTL <= 0 {
		return fmt.Errorf("PLATEWISE_LINK_TTL must be positive, got %s", c.Links.TTL)
	}
	if c.Links.PerTenantLimit < 1 || c.Links.PerAdminLimit < 1 {
		return errors.New("setup link rate limits must be >= 1")
	}
	if c.Identity.Timeout <= 0 {
		return fmt.Errorf("PLATEWISE_IDP_TIMEOUT must be positive, got %s", c.Identity.Timeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
