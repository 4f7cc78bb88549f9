// Package config loads the server settings once at startup.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML file
// named by DEVLOG_CONFIG, a .env file in the working directory, and the
// process environment.
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

	"github.com/sakif/devlog/internal/metagen"
	"github.com/sakif/devlog/internal/repository/sqlstore"
)

const minSecretLength = 16

// Config is read once and treated as immutable.
type Config struct {
	Port int

	// Database
	DBDriver      sqlstore.Dialect
	DBPath        string
	DatabaseURL   string
	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLPort     string
	MySQLDB       string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// HTTP
	CORSAllowedOrigin string
	RateLimitRPS      float64
	RateLimitBurst    int

	// Metadata generation
	Metagen        metagen.ProviderConfig
	MetagenTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 5000)
	v.SetDefault("db_driver", "")
	v.SetDefault("db_path", "data/devlog.db")
	v.SetDefault("database_url", "")
	v.SetDefault("mysql_user", "")
	v.SetDefault("mysql_password", "")
	v.SetDefault("mysql_host", "")
	v.SetDefault("mysql_port", "3306")
	v.SetDefault("mysql_db", "")
	v.SetDefault("jwt_secret_key", "")
	v.SetDefault("token_ttl", time.Hour)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cors_allowed_origin", "")
	v.SetDefault("rate_limit_rps", 0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("metagen_provider", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", metagen.DefaultGeminiModel)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_model", metagen.DefaultOpenAIModel)
	v.SetDefault("metagen_timeout", metagen.DefaultTimeout)
}

// Load reads .env (if present), the optional YAML file and the environment.
// Every missing or invalid setting is reported in one error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("DEVLOG_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:              v.GetInt("port"),
		DBPath:            v.GetString("db_path"),
		DatabaseURL:       v.GetString("database_url"),
		MySQLUser:         v.GetString("mysql_user"),
		MySQLPassword:     v.GetString("mysql_password"),
		MySQLHost:         v.GetString("mysql_host"),
		MySQLPort:         v.GetString("mysql_port"),
		MySQLDB:           v.GetString("mysql_db"),
		JWTSecret:         v.GetString("jwt_secret_key"),
		TokenTTL:          v.GetDuration("token_ttl"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		CORSAllowedOrigin: v.GetString("cors_allowed_origin"),
		RateLimitRPS:      v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:    v.GetInt("rate_limit_burst"),
		Metagen: metagen.ProviderConfig{
			Provider:      v.GetString("metagen_provider"),
			GeminiAPIKey:  v.GetString("gemini_api_key"),
			GeminiModel:   v.GetString("gemini_model"),
			OpenAIAPIKey:  v.GetString("openai_api_key"),
			OpenAIBaseURL: v.GetString("openai_base_url"),
			OpenAIModel:   v.GetString("openai_model"),
		},
		MetagenTimeout: v.GetDuration("metagen_timeout"),
	}

	var problems []string

	driver := v.GetString("db_driver")
	if driver == "" {
		driver = inferDriver(cfg)
	}
	dialect, err := sqlstore.ParseDialect(driver)
	if err != nil {
		problems = append(problems, fmt.Sprintf("DB_DRIVER %q is not sqlite, mysql or postgres", driver))
	}
	cfg.DBDriver = dialect

	switch {
	case cfg.JWTSecret == "":
		problems = append(problems, "JWT_SECRET_KEY is required")
	case len(cfg.JWTSecret) < minSecretLength:
		problems = append(problems, fmt.Sprintf("JWT_SECRET_KEY must be at least %d characters", minSecretLength))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d is out of range", cfg.Port))
	}
	if cfg.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if cfg.RateLimitRPS < 0 {
		problems = append(problems, "RATE_LIMIT_RPS must not be negative")
	}
	if cfg.DBDriver == sqlstore.MySQL && cfg.DatabaseURL == "" && (cfg.MySQLHost == "" || cfg.MySQLDB == "") {
		problems = append(problems, "MYSQL_HOST and MYSQL_DB are required when DB_DRIVER=mysql")
	}
	if cfg.DBDriver == sqlstore.Postgres && cfg.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required when DB_DRIVER=postgres")
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// inferDriver picks a backend from the settings present when DB_DRIVER is
// unset.
func inferDriver(cfg *Config) string {
	switch {
	case strings.HasPrefix(cfg.DatabaseURL, "postgres://"), strings.HasPrefix(cfg.DatabaseURL, "postgresql://"):
		return string(sqlstore.Postgres)
	case cfg.MySQLHost != "":
		return string(sqlstore.MySQL)
	}
	return string(sqlstore.SQLite)
}

// DSN returns the data source name for the configured backend.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case sqlstore.MySQL:
		if c.DatabaseURL != "" {
			return c.DatabaseURL
		}
		return sqlstore.MySQLDSN(c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDB)
	case sqlstore.Postgres:
		return c.DatabaseURL
	default:
		return c.DBPath
	}
}
