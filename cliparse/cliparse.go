package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	SessionSecret string
	SessionTTL    time.Duration

	UploadDir string

	RedisURL     string
	StandingsTTL time.Duration

	LogLevel     string
	LogFile      string
	ErrorLogFile string

	AdminEmail    string
	AdminPassword string
}

// ParseFlags loads the optional .env file, then applies CLI flags over env
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string
	var sessionTTL, standingsTTL string

	fs := flag.NewFlagSet("voucher-vote", flag.ContinueOnError)

	fs.StringVar(&envFile, "env", "", "Path to .env file (default .env)")

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session signing secret (prefer env)")
	fs.StringVar(&sessionTTL, "session-ttl", "", "Session lifetime, e.g. 72h")

	fs.StringVar(&cfg.UploadDir, "upload-dir", "", "Directory for uploaded files")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the standings cache")
	fs.StringVar(&standingsTTL, "standings-ttl", "", "Standings cache lifetime, e.g. 30s")

	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "JSON log file")
	fs.StringVar(&cfg.ErrorLogFile, "error-log-file", "", "JSON error-only log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if envFile == "" {
		envFile = os.Getenv("ENV_FILE")
	}
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	var err error
	if cfg.SessionTTL, err = durationSetting(sessionTTL, "SESSION_TTL", 72*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.StandingsTTL, err = durationSetting(standingsTTL, "STANDINGS_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}

	cfg.UploadDir = stringSetting(cfg.UploadDir, "UPLOAD_DIR", "uploads")
	cfg.RedisURL = stringSetting(cfg.RedisURL, "REDIS_URL", "")
	cfg.LogLevel = stringSetting(cfg.LogLevel, "LOG_LEVEL", "info")
	cfg.LogFile = stringSetting(cfg.LogFile, "LOG_FILE", "")
	cfg.ErrorLogFile = stringSetting(cfg.ErrorLogFile, "ERROR_LOG_FILE", "")

	// Bootstrap admin is env-only so the password never shows up in ps output
	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// loadEnvFile reads KEY=VALUE pairs without overriding variables already set.
// A missing default .env is fine; a missing explicit file is not.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

func stringSetting(flagValue, envKey, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

func durationSetting(flagValue, envKey string, def time.Duration) (time.Duration, error) {
	raw := stringSetting(flagValue, envKey, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", envKey, raw)
	}
	return d, nil
}
