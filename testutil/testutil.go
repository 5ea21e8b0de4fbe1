// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/voucher-vote/auth"
	"github.com/danielhkuo/voucher-vote/cliparse"
	"github.com/danielhkuo/voucher-vote/db"
	"github.com/danielhkuo/voucher-vote/models"
)

// TestSessionSecret signs session tokens in tests
const TestSessionSecret = "test-session-secret"

// TestPassword is the plaintext password of every CreateTestUser account
const TestPassword = "password123"

func init() {
	auth.PasswordCost = bcrypt.MinCost
}

// SetupTestDB creates a fresh SQLite database file with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(cliparse.DatabaseSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn, cliparse.DatabaseSQLite); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseType:  cliparse.DatabaseSQLite,
		DatabaseURL:   ":memory:",
		SessionSecret: TestSessionSecret,
		SessionTTL:    time.Hour,
		StandingsTTL:  time.Minute,
		LogLevel:      "debug",
	}
}

// CreateTestUser inserts an account with TestPassword and returns it.
// The email is derived from the name.
func CreateTestUser(t *testing.T, conn *sql.DB, name, role string) models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now()
	user := models.User{
		Name:         name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = conn.QueryRow(`
		INSERT INTO app_user (name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, user.Name, user.Email, user.PasswordHash, user.Role, now, now).Scan(&user.ID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// CreateTestCandidate inserts a candidate with no votes and returns its ID
func CreateTestCandidate(t *testing.T, conn *sql.DB, name string) int64 {
	t.Helper()

	var id int64
	now := time.Now()
	err := conn.QueryRow(`
		INSERT INTO candidate (name, description, created_at, updated_at)
		VALUES ($1, 'A test candidate', $2, $2)
		RETURNING id
	`, name, now).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return id
}

// CreateTestTransaction inserts a package purchase with the given status and returns its ID
func CreateTestTransaction(t *testing.T, conn *sql.DB, userID int64, voteAmount int, status string) int64 {
	t.Helper()

	var id int64
	now := time.Now()
	err := conn.QueryRow(`
		INSERT INTO payment_transaction (user_id, phone_number, amount, vote_package_amount, payment_proof_url, status, created_at, updated_at)
		VALUES ($1, '081234567890', $2, $3, '/uploads/proof.png', $4, $5, $5)
		RETURNING id
	`, userID, int64(voteAmount)*10000, voteAmount, status, now).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return id
}

// CreateTestVoucher inserts a VERIFIED transaction and an UNUSED voucher for it.
// Returns the voucher ID and code.
func CreateTestVoucher(t *testing.T, conn *sql.DB, userID int64, voteAmount int) (int64, string) {
	t.Helper()

	transactionID := CreateTestTransaction(t, conn, userID, voteAmount, models.TransactionVerified)

	code, err := auth.GenerateVoucherCode()
	if err != nil {
		t.Fatalf("Failed to generate voucher code: %v", err)
	}

	var id int64
	now := time.Now()
	err = conn.QueryRow(`
		INSERT INTO voucher (code, vote_amount, user_id, transaction_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`, code, voteAmount, userID, transactionID, models.VoucherUnused, now).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test voucher: %v", err)
	}

	return id, code
}

// SessionToken signs a session token for the user with TestSessionSecret
func SessionToken(t *testing.T, user models.User) string {
	t.Helper()

	token, _, err := auth.IssueSessionToken(models.SessionUser{ID: user.ID, Role: user.Role}, TestSessionSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Failed to issue session token: %v", err)
	}
	return token
}

// AuthHeader returns request headers authenticating as the user
func AuthHeader(t *testing.T, user models.User) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + SessionToken(t, user)}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
