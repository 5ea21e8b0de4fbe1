// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/voucher-vote/auth"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/models"
	"github.com/danielhkuo/voucher-vote/testutil"
)

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewUserHandler(db, cfg)

	tests := []struct {
		name           string
		body           models.RegisterRequest
		expectedStatus int
	}{
		{
			name:           "valid registration",
			body:           models.RegisterRequest{Name: "Alice", Email: " Alice@Example.com ", Password: "password123"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate email with different case",
			body:           models.RegisterRequest{Name: "Alice Again", Email: "ALICE@example.com", Password: "password123"},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing name",
			body:           models.RegisterRequest{Email: "bob@example.com", Password: "password123"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid email",
			body:           models.RegisterRequest{Name: "Bob", Email: "bob", Password: "password123"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "short password",
			body:           models.RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "short"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Register(w, testutil.MakeRequest("POST", "/auth/register", tt.body, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var u models.User
				testutil.AssertJSON(t, w, &u)
				if u.ID <= 0 || u.Email != "alice@example.com" || u.Role != models.RoleVoter {
					t.Errorf("Unexpected user: %+v", u)
				}
				if u.PasswordHash != "" {
					t.Error("Password hash must not be serialized")
				}
			}
		})
	}
}

func TestLoginAndSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewUserHandler(db, cfg)
	alice := testutil.CreateTestUser(t, db, "Alice", models.RoleVoter)

	tests := []struct {
		name           string
		body           models.LoginRequest
		expectedStatus int
	}{
		{name: "wrong password", body: models.LoginRequest{Email: alice.Email, Password: "wrong-password"}, expectedStatus: http.StatusUnauthorized},
		{name: "unknown email", body: models.LoginRequest{Email: "nobody@example.com", Password: testutil.TestPassword}, expectedStatus: http.StatusUnauthorized},
		{name: "valid credentials", body: models.LoginRequest{Email: "ALICE@example.com", Password: testutil.TestPassword}, expectedStatus: http.StatusOK},
	}

	var token string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Login(w, testutil.MakeRequest("POST", "/auth/login", tt.body, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.LoginResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.User.ID != alice.ID || resp.User.Role != models.RoleVoter {
				t.Errorf("Unexpected session user: %+v", resp.User)
			}

			var cookie *http.Cookie
			for _, c := range w.Result().Cookies() {
				if c.Name == middleware.SessionCookie {
					cookie = c
				}
			}
			if cookie == nil || cookie.Value != resp.Token || !cookie.HttpOnly {
				t.Fatalf("Expected an HttpOnly session cookie carrying the token, got %+v", cookie)
			}

			if _, err := auth.ParseSessionToken(resp.Token, cfg.SessionSecret); err != nil {
				t.Errorf("Issued token does not verify: %v", err)
			}
			token = resp.Token
		})
	}

	session := middleware.WithSession(cfg.SessionSecret, handler.Session)

	w := httptest.NewRecorder()
	session(w, httptest.NewRequest("GET", "/auth/session", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var anon models.SessionResponse
	testutil.AssertJSON(t, w, &anon)
	if anon.Session != nil {
		t.Errorf("Expected null session for anonymous caller, got %+v", anon.Session)
	}

	req := httptest.NewRequest("GET", "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	w = httptest.NewRecorder()
	session(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.SessionResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Session == nil || resp.Session.User.Email != alice.Email {
		t.Errorf("Expected Alice's session, got %+v", resp.Session)
	}
}

func TestLogout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewUserHandler(db, testutil.GetTestConfig())

	w := httptest.NewRecorder()
	handler.Logout(w, httptest.NewRequest("POST", "/auth/logout", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.SessionCookie || cookies[0].MaxAge >= 0 {
		t.Errorf("Expected an expired session cookie, got %+v", cookies)
	}
}

func TestListUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewUserHandler(db, testutil.GetTestConfig())
	testutil.CreateTestUser(t, db, "Alice", models.RoleVoter)
	testutil.CreateTestUser(t, db, "Admin", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.ListUsers(w, httptest.NewRequest("GET", "/admin/users", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.UserListResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Users) != 2 || resp.Users[0].Name != "Admin" {
		t.Errorf("Expected 2 users newest first, got %+v", resp.Users)
	}
}

func TestBootstrapAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	role := func(email string) string {
		var r string
		if err := db.QueryRow(`SELECT role FROM app_user WHERE email = $1`, email).Scan(&r); err != nil {
			t.Fatalf("Failed to read role for %s: %v", email, err)
		}
		return r
	}

	if err := BootstrapAdmin(ctx, db, "", "ignored"); err != nil {
		t.Fatalf("Empty email should be a no-op: %v", err)
	}

	if err := BootstrapAdmin(ctx, db, "Root@Example.com", "supersecret"); err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	if role("root@example.com") != models.RoleAdmin {
		t.Error("Expected created account to be ADMIN")
	}

	// Running again is a no-op
	if err := BootstrapAdmin(ctx, db, "root@example.com", "other-password"); err != nil {
		t.Fatalf("Second bootstrap failed: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM app_user`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 account, got %d", count)
	}

	alice := testutil.CreateTestUser(t, db, "Alice", models.RoleVoter)
	if err := BootstrapAdmin(ctx, db, alice.Email, "ignored-password"); err != nil {
		t.Fatalf("Failed to promote: %v", err)
	}
	if role(alice.Email) != models.RoleAdmin {
		t.Error("Expected existing account to be promoted")
	}

	var hash string
	if err := db.QueryRow(`SELECT password_hash FROM app_user WHERE email = $1`, alice.Email).Scan(&hash); err != nil {
		t.Fatal(err)
	}
	if auth.CheckPassword(hash, testutil.TestPassword) != nil {
		t.Error("Promotion must keep the existing password")
	}
}
