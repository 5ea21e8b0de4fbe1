// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/danielhkuo/voucher-vote/cliparse"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, databaseType string) error {
	ddl, err := Schema(databaseType)
	if err != nil {
		return err
	}

	_, err = db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Schema renders the DDL for the given database type.
// The dialects only differ in how auto-increment keys are declared.
func Schema(databaseType string) (string, error) {
	var idColumn string
	switch databaseType {
	case cliparse.DatabasePostgres:
		idColumn = "BIGSERIAL PRIMARY KEY"
	case cliparse.DatabaseSQLite:
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
	default:
		return "", fmt.Errorf("unsupported database type %q", databaseType)
	}
	return strings.ReplaceAll(schema, "{{id}}", idColumn), nil
}

const schema = `
-- Accounts
CREATE TABLE IF NOT EXISTS app_user (
    id {{id}},
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'VOTER' CHECK (role IN ('VOTER', 'ADMIN')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id {{id}},
    name TEXT NOT NULL,
    photo_url TEXT,
    description TEXT,
    vote_count BIGINT NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_candidate_vote_count ON candidate(vote_count);

-- Vote package purchases awaiting manual payment review
CREATE TABLE IF NOT EXISTS payment_transaction (
    id {{id}},
    user_id BIGINT NOT NULL REFERENCES app_user(id),
    phone_number TEXT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount >= 0),
    vote_package_amount INTEGER NOT NULL CHECK (vote_package_amount >= 1),
    payment_proof_url TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'VERIFIED', 'REJECTED')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_payment_transaction_user_id ON payment_transaction(user_id);
CREATE INDEX IF NOT EXISTS idx_payment_transaction_status ON payment_transaction(status);

-- Vouchers (at most one per transaction)
CREATE TABLE IF NOT EXISTS voucher (
    id {{id}},
    code TEXT NOT NULL UNIQUE,
    vote_amount INTEGER NOT NULL CHECK (vote_amount >= 1),
    user_id BIGINT NOT NULL REFERENCES app_user(id),
    transaction_id BIGINT NOT NULL UNIQUE REFERENCES payment_transaction(id),
    status TEXT NOT NULL DEFAULT 'UNUSED' CHECK (status IN ('UNUSED', 'USED')),
    deleted_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_voucher_user_status ON voucher(user_id, status);

-- Votes (append-only, at most one per voucher)
CREATE TABLE IF NOT EXISTS vote (
    id {{id}},
    user_id BIGINT NOT NULL REFERENCES app_user(id),
    candidate_id BIGINT NOT NULL REFERENCES candidate(id) ON DELETE RESTRICT,
    voucher_id BIGINT NOT NULL UNIQUE REFERENCES voucher(id),
    vote_amount INTEGER NOT NULL CHECK (vote_amount >= 1),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vote_candidate_id ON vote(candidate_id);
CREATE INDEX IF NOT EXISTS idx_vote_user_id ON vote(user_id);

-- Single-row running total. Redemptions update it first, which serializes
-- them before any candidate row is touched.
CREATE TABLE IF NOT EXISTS tally (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    total_votes BIGINT NOT NULL DEFAULT 0 CHECK (total_votes >= 0),
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO tally (id, total_votes) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
`
