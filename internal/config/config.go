// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// insecureJWTSecret is the development fallback used when JWT_SECRET is unset.
const insecureJWTSecret = "dev-secret-change-in-production"

// SQLConfig holds the SQL Server connection parameters.
type SQLConfig struct {
	Server       string        // host or host:port (SQL_SERVER)
	Database     string        // target database (SQL_DATABASE)
	User         string        // login username (SQL_USER)
	Password     string        // login password (SQL_PASSWORD)
	QueryTimeout time.Duration // per-query timeout (SQL_TIMEOUT, seconds)
	LoginTimeout time.Duration // dial/login timeout (SQL_LOGIN_TIMEOUT, seconds)

	// Pool sizing
	MaxOpen         int           // SQL_MAX_OPEN
	MaxIdle         int           // SQL_MAX_IDLE
	ConnMaxLifetime time.Duration // SQL_CONN_MAX_LIFETIME
	IdleTTL         time.Duration // SQL_IDLE_TTL, max idle time before the pool sweep closes a handle
}

// Validate checks that the required connection parameters are present.
// All missing variables are reported in a single error.
func (s *SQLConfig) Validate() error {
	var missing []string
	if s.Server == "" {
		missing = append(missing, "SQL_SERVER")
	}
	if s.Database == "" {
		missing = append(missing, "SQL_DATABASE")
	}
	if s.User == "" {
		missing = append(missing, "SQL_USER")
	}
	if s.Password == "" {
		missing = append(missing, "SQL_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required SQL connection environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Config holds the configuration for the HTTP API, the SQL Server backend,
// and the optional NL-to-SQL assist.
type Config struct {
	SQL SQLConfig

	AnthropicAPIKey string // ANTHROPIC_API_KEY, assist disabled when empty
	AnthropicModel  string // ANTHROPIC_MODEL

	ListenAddr    string // HTTP listen address (default ":8080")
	HistoryDBPath string // path to the SQLite history store
	JWTSecret     string // HS256 shared secret for bearer auth
	LogLevel      string // log level: debug, info, warn, error (default "info")
	Env           string // environment: "development" (default) or "production"

	MaxResultRows     int    // cap on rows returned per query
	SchemaRefreshCron string // cron spec for the schema cache refresh

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AssistEnabled returns true when an Anthropic API key is configured.
func (c *Config) AssistEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// LoadFromEnv loads configuration from environment variables.
// ANTHROPIC_API_KEY is optional; the server starts without the assist.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		SQL: SQLConfig{
			Server:       os.Getenv("SQL_SERVER"),
			Database:     os.Getenv("SQL_DATABASE"),
			User:         os.Getenv("SQL_USER"),
			Password:     os.Getenv("SQL_PASSWORD"),
			QueryTimeout: secondsEnv("SQL_TIMEOUT", 10),
			LoginTimeout: secondsEnv("SQL_LOGIN_TIMEOUT", 10),
			MaxOpen:      intEnv("SQL_MAX_OPEN", 4),
			MaxIdle:      intEnv("SQL_MAX_IDLE", 2),
		},
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    os.Getenv("ANTHROPIC_MODEL"),
		ListenAddr:        os.Getenv("LISTEN_ADDR"),
		HistoryDBPath:     os.Getenv("HISTORY_DB_PATH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		Env:               os.Getenv("ENV"),
		MaxResultRows:     intEnv("MAX_RESULT_ROWS", 10000),
		SchemaRefreshCron: os.Getenv("SCHEMA_REFRESH_CRON"),
	}

	if err := cfg.SQL.Validate(); err != nil {
		return nil, err
	}

	if v := os.Getenv("SQL_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SQL.ConnMaxLifetime = d
		}
	}
	if v := os.Getenv("SQL_IDLE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SQL.IdleTTL = d
		}
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.HistoryDBPath == "" {
		cfg.HistoryDBPath = "sqlagent_history.sqlite"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = "claude-3-7-sonnet-20250219"
	}
	if cfg.SchemaRefreshCron == "" {
		cfg.SchemaRefreshCron = "@every 15m"
	}
	if cfg.SQL.ConnMaxLifetime == 0 {
		cfg.SQL.ConnMaxLifetime = time.Hour
	}
	if cfg.SQL.IdleTTL == 0 {
		cfg.SQL.IdleTTL = 5 * time.Minute
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = insecureJWTSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure default. Set JWT_SECRET in production!")
	}
	if !cfg.AssistEnabled() {
		cfg.Warnings = append(cfg.Warnings, "ANTHROPIC_API_KEY not set, the /v1/ask endpoint is disabled")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == insecureJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func secondsEnv(key string, defaultSecs int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defaultSecs) * time.Second
}

func intEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
