// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/voucher-vote/cliparse"
)

// sqlitePragmas are applied to every SQLite connection.
// _txlock=immediate makes BEGIN take the write lock up front so two
// redemptions queue on busy_timeout instead of failing on lock upgrade.
var sqlitePragmas = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(10000)",
	"_pragma=journal_mode(WAL)",
	"_txlock=immediate",
}

// Open connects to the configured database and verifies the connection.
func Open(databaseType, databaseURL string) (*sql.DB, error) {
	var conn *sql.DB
	var err error

	switch databaseType {
	case cliparse.DatabasePostgres:
		conn, err = sql.Open("postgres", databaseURL)
	case cliparse.DatabaseSQLite:
		conn, err = sql.Open("sqlite", SQLiteDSN(databaseURL))
		if err == nil && isMemoryDSN(databaseURL) {
			// Every connection to :memory: is a separate database
			conn.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", databaseType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// SQLiteDSN turns a path or file: URI into a modernc DSN carrying the
// pragmas the ledger relies on. Parameters already present are kept.
func SQLiteDSN(url string) string {
	dsn := url
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dsn = "file:" + dsn
	}

	for _, p := range sqlitePragmas {
		key := p[:strings.Index(p, "=")+1]
		if key == "_pragma=" {
			key = p[:strings.Index(p, "(")+1]
		}
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + p
		} else {
			dsn += "?" + p
		}
	}
	return dsn
}

func isMemoryDSN(url string) bool {
	return url == ":memory:" || strings.Contains(url, "mode=memory")
}

// IsUniqueViolation reports whether err is a UNIQUE violation on table.column.
// Works for both lib/pq and modernc sqlite errors.
func IsUniqueViolation(err error, table, column string) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Inline UNIQUE constraints are named <table>_<column>_key
		return pqErr.Code == "23505" && pqErr.Constraint == table+"_"+column+"_key"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+table+"."+column)
}
