// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the ledger store and creates its schema.

# Drivers

Two stores are supported, selected by cliparse.Config.DatabaseType:

  - postgres: github.com/lib/pq
  - sqlite: modernc.org/sqlite (pure Go, used by the tests)

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections always run with foreign keys on, WAL journaling, a busy
timeout and BEGIN IMMEDIATE transactions (see SQLiteDSN). Queries use $N
placeholders, which both drivers accept.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - app_user: accounts with bcrypt password hashes and a role
  - candidate: vote_count and stored percentage share
  - payment_transaction: vote package purchases (PENDING/VERIFIED/REJECTED)
  - voucher: single-use vote tokens, soft-deletable
  - vote: append-only redemption records

# Relationships

	app_user 1──* payment_transaction
	payment_transaction 1──0..1 voucher   (voucher.transaction_id UNIQUE)
	voucher 1──0..1 vote                  (vote.voucher_id UNIQUE)
	candidate 1──* vote                   (ON DELETE RESTRICT)

# Unique Violations

IsUniqueViolation recognises duplicate-key errors from both drivers:

	if db.IsUniqueViolation(err, "voucher", "code") {
		// retry with a fresh code
	}
*/
package db
