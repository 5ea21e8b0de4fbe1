// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/danielhkuo/voucher-vote/cache"
	"github.com/danielhkuo/voucher-vote/models"
	"github.com/danielhkuo/voucher-vote/storage"
	"github.com/danielhkuo/voucher-vote/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *sql.DB, *storage.Store) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { db.Close() })

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}

	mux := NewRouter(db, testutil.GetTestConfig(), cache.NewMemory(time.Minute), store)
	return mux, db, store
}

func TestHealthEndpoint(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "voucher-vote API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/no-such-page", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestRouteAccess(t *testing.T) {
	mux, db, _ := newTestRouter(t)

	voter := testutil.CreateTestUser(t, db, "Voter", models.RoleVoter)
	admin := testutil.CreateTestUser(t, db, "Admin", models.RoleAdmin)
	voterAuth := testutil.AuthHeader(t, voter)
	adminAuth := testutil.AuthHeader(t, admin)

	testCases := []struct {
		name           string
		method         string
		path           string
		headers        map[string]string
		expectedStatus int
	}{
		// Public
		{"packages", "GET", "/packages", nil, http.StatusOK},
		{"candidates", "GET", "/candidates", nil, http.StatusOK},
		{"anonymous session", "GET", "/auth/session", nil, http.StatusOK},

		// Voter routes need a session
		{"votes anonymous", "POST", "/votes", nil, http.StatusUnauthorized},
		{"my vouchers anonymous", "GET", "/vouchers/mine", nil, http.StatusUnauthorized},
		{"my vouchers", "GET", "/vouchers/mine", voterAuth, http.StatusOK},
		{"my transactions", "GET", "/transactions/mine", voterAuth, http.StatusOK},

		// Admin routes need the ADMIN role
		{"admin anonymous", "GET", "/admin/transactions", nil, http.StatusUnauthorized},
		{"admin as voter", "GET", "/admin/transactions", voterAuth, http.StatusForbidden},
		{"issue as voter", "POST", "/admin/vouchers", voterAuth, http.StatusForbidden},
		{"admin transactions", "GET", "/admin/transactions", adminAuth, http.StatusOK},
		{"admin vouchers", "GET", "/admin/vouchers", adminAuth, http.StatusOK},
		{"admin candidates", "GET", "/admin/candidates", adminAuth, http.StatusOK},
		{"admin votes", "GET", "/admin/votes", adminAuth, http.StatusOK},
		{"admin users", "GET", "/admin/users", adminAuth, http.StatusOK},
		{"tally", "GET", "/admin/tally", adminAuth, http.StatusOK},
		{"reconcile", "POST", "/admin/tally/reconcile", adminAuth, http.StatusOK},
		{"bad token", "GET", "/admin/users", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest(tc.method, tc.path, nil, tc.headers)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d. Body: %s", tc.expectedStatus, tc.method, tc.path, w.Code, w.Body.String())
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Errorf("Expected X-Request-ID on %s %s", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	// Test that unsupported methods on defined routes return 405
	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},            // Only GET is defined
		{"GET", "/votes"},              // Only POST is defined
		{"PATCH", "/admin/vouchers/1"}, // Only DELETE is defined
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	mux, db, _ := newTestRouter(t)

	id := testutil.CreateTestCandidate(t, db, "Candidate A")

	req := httptest.NewRequest("GET", "/candidates/"+strconv.FormatInt(id, 10), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	var c models.Candidate
	testutil.AssertJSON(t, w, &c)
	if c.ID != id {
		t.Errorf("Expected candidate %d, got %d", id, c.ID)
	}
}

func TestUploadsServed(t *testing.T) {
	mux, _, store := newTestRouter(t)

	dir := filepath.Join(store.Dir(), "candidates")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "photo.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", storage.URLPrefix+"candidates/photo.txt", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "hello" {
		t.Errorf("Expected stored file, got %d %q", w.Code, w.Body.String())
	}
}
