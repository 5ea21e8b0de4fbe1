// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the voucher-vote API server.

Voucher-vote runs a paid, weighted vote. Voters buy vote packages, an admin
verifies each payment and issues a single-use voucher, and spending the
voucher adds its weight to one candidate's tally.

# Starting the Server

The server reads environment variables (optionally from a .env file) or
CLI flags:

	DATABASE_URL=votes.db SESSION_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or SQLite path
  - SESSION_SECRET (--session-secret): Secret for signing session tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SESSION_TTL, UPLOAD_DIR, REDIS_URL, STANDINGS_TTL
  - LOG_LEVEL, LOG_FILE, ERROR_LOG_FILE
  - ADMIN_EMAIL and ADMIN_PASSWORD: bootstrap admin account

# Architecture

  - ledger: Voucher redemption, issuance and tally maintenance
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: Sessions, CORS, logging, JSON helpers
  - cache: Standings cache (Redis or in-memory)
  - storage: Uploaded image store
  - models: Request/response and domain types
  - auth: Session tokens, passwords, voucher codes
  - db: Connection and schema
  - logger: zap-backed slog setup
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
