package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	Environment        string
	LogLevel           string
	LogFormat          string
	SeedTenantName     string
	SeedAdminEmail     string
	SeedAdminPassword  string
	EmailFrom          string
	EmailEnabled       bool
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPUseTLS         bool
	RunMigrations      bool
	RunSeed            bool
	MigrationsDir      string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	ReminderInterval   time.Duration
	MetricsEnabled     bool
}

var defaults = map[string]any{
	"APP_ADDR":              ":8080",
	"DATABASE_URL":          "",
	"JWT_SECRET":            "",
	"APP_ENV":               "development",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"SEED_TENANT_NAME":      "Default Tenant",
	"SEED_ADMIN_EMAIL":      "",
	"SEED_ADMIN_PASSWORD":   "",
	"EMAIL_FROM":            "no-reply@example.com",
	"EMAIL_ENABLED":         false,
	"SMTP_HOST":             "",
	"SMTP_PORT":             587,
	"SMTP_USER":             "",
	"SMTP_PASSWORD":         "",
	"SMTP_USE_TLS":          true,
	"RUN_MIGRATIONS":        true,
	"RUN_SEED":              true,
	"MIGRATIONS_DIR":        "migrations",
	"MAX_BODY_BYTES":        1048576,
	"RATE_LIMIT_PER_MINUTE": 120,
	"REMINDER_INTERVAL":     24 * time.Hour,
	"METRICS_ENABLED":       true,
}

// Load reads configuration from the environment. When CONFIG_FILE points at a
// YAML file its values are used as a base layer beneath the environment.
func Load() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Addr:               v.GetString("APP_ADDR"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		Environment:        v.GetString("APP_ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		SeedTenantName:     v.GetString("SEED_TENANT_NAME"),
		SeedAdminEmail:     v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:  v.GetString("SEED_ADMIN_PASSWORD"),
		EmailFrom:          v.GetString("EMAIL_FROM"),
		EmailEnabled:       v.GetBool("EMAIL_ENABLED"),
		SMTPHost:           v.GetString("SMTP_HOST"),
		SMTPPort:           v.GetInt("SMTP_PORT"),
		SMTPUser:           v.GetString("SMTP_USER"),
		SMTPPassword:       v.GetString("SMTP_PASSWORD"),
		SMTPUseTLS:         v.GetBool("SMTP_USE_TLS"),
		RunMigrations:      v.GetBool("RUN_MIGRATIONS"),
		RunSeed:            v.GetBool("RUN_SEED"),
		MigrationsDir:      v.GetString("MIGRATIONS_DIR"),
		MaxBodyBytes:       v.GetInt64("MAX_BODY_BYTES"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		ReminderInterval:   v.GetDuration("REMINDER_INTERVAL"),
		MetricsEnabled:     v.GetBool("METRICS_ENABLED"),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
