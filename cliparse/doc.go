// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Before reading the environment it loads a .env file (godotenv). Variables
already present in the process environment win over the file. A missing
default .env is ignored; a file named with -env or ENV_FILE must exist.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: PostgreSQL connection string or SQLite path (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - SessionSecret: HMAC key for session tokens (required)
  - SessionTTL: Session lifetime (default: 72h)
  - UploadDir: Root for payment proofs and candidate photos (default: uploads)
  - RedisURL: Standings cache; in-process cache when empty
  - StandingsTTL: Standings cache lifetime (default: 30s)
  - LogLevel, LogFile, ErrorLogFile: see package logger
  - AdminEmail, AdminPassword: bootstrap admin account (env only)

# CLI Flags

	-env             .env file path
	-p               Server port
	-d               Database URL
	-t               Database type
	-session-secret  Session signing secret
	-session-ttl     Session lifetime
	-upload-dir      Upload directory
	-redis           Redis URL
	-standings-ttl   Standings cache lifetime
	-log-level       Log level
	-log-file        JSON log file
	-error-log-file  JSON error log file

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	SESSION_SECRET → -session-secret
	SESSION_TTL    → -session-ttl
	UPLOAD_DIR     → -upload-dir
	REDIS_URL      → -redis
	STANDINGS_TTL  → -standings-ttl
	LOG_LEVEL      → -log-level
	LOG_FILE       → -log-file
	ERROR_LOG_FILE → -error-log-file

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - SESSION_SECRET is missing
  - DATABASE_TYPE is not sqlite or postgres
  - a duration or PORT does not parse
  - only one of ADMIN_EMAIL / ADMIN_PASSWORD is set
*/
package cliparse
