// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/voucher-vote/cache"
	"github.com/danielhkuo/voucher-vote/ledger"
	"github.com/danielhkuo/voucher-vote/models"
	"github.com/danielhkuo/voucher-vote/storage"
	"github.com/danielhkuo/voucher-vote/testutil"
)

func TestListCandidates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewCandidateHandler(db, cfg, cache.NewMemory(time.Minute), newTestStore(t))
	service := ledger.NewService(db)

	alice := testutil.CreateTestUser(t, db, "Alice", models.RoleVoter)
	zed := testutil.CreateTestCandidate(t, db, "Zed")
	amy := testutil.CreateTestCandidate(t, db, "Amy")
	bo := testutil.CreateTestCandidate(t, db, "Bo")

	for _, v := range []struct {
		candidate int64
		amount    int
	}{{zed, 1}, {amy, 2}} {
		_, code := testutil.CreateTestVoucher(t, db, alice.ID, v.amount)
		if _, err := service.Redeem(t.Context(), alice.ID, v.candidate, code); err != nil {
			t.Fatalf("Failed to redeem: %v", err)
		}
	}

	tests := []struct {
		name          string
		query         string
		expectedNames []string
	}{
		{name: "default sorts by votes", query: "", expectedNames: []string{"Amy", "Zed", "Bo"}},
		{name: "sort by name", query: "?sort=name", expectedNames: []string{"Amy", "Bo", "Zed"}},
		{name: "search is case-insensitive", query: "?search=ZE", expectedNames: []string{"Zed"}},
		{name: "search without match", query: "?search=nobody", expectedNames: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ListCandidates(w, httptest.NewRequest("GET", "/candidates"+tt.query, nil))

			testutil.AssertStatus(t, w, http.StatusOK)

			var resp models.CandidateListResponse
			testutil.AssertJSON(t, w, &resp)

			if len(resp.Candidates) != len(tt.expectedNames) {
				t.Fatalf("Expected %d candidates, got %d", len(tt.expectedNames), len(resp.Candidates))
			}
			for i, name := range tt.expectedNames {
				if resp.Candidates[i].Name != name {
					t.Errorf("Position %d: expected %s, got %s", i, name, resp.Candidates[i].Name)
				}
			}
		})
	}

	w := httptest.NewRecorder()
	handler.ListCandidates(w, httptest.NewRequest("GET", "/candidates", nil))
	var resp models.CandidateListResponse
	testutil.AssertJSON(t, w, &resp)

	expected := map[int64]float64{amy: 66.67, zed: 33.33, bo: 0}
	for _, c := range resp.Candidates {
		if c.Percentage != expected[c.ID] {
			t.Errorf("%s: expected percentage %v, got %v", c.Name, expected[c.ID], c.Percentage)
		}
	}
}

func TestGetCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewCandidateHandler(db, cfg, cache.NewMemory(time.Minute), newTestStore(t))
	id := testutil.CreateTestCandidate(t, db, "Candidate A")

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{name: "existing candidate", id: testIDString(id), expectedStatus: http.StatusOK},
		{name: "unknown candidate", id: "99999", expectedStatus: http.StatusNotFound},
		{name: "malformed id", id: "abc", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, get := range []http.HandlerFunc{handler.GetCandidate, handler.AdminGetCandidate} {
				req := httptest.NewRequest("GET", "/candidates/"+tt.id, nil)
				req.SetPathValue("id", tt.id)
				w := httptest.NewRecorder()

				get(w, req)

				testutil.AssertStatus(t, w, tt.expectedStatus)
				if tt.expectedStatus == http.StatusOK {
					var c models.Candidate
					testutil.AssertJSON(t, w, &c)
					if c.ID != id || c.Name != "Candidate A" {
						t.Errorf("Unexpected candidate: %+v", c)
					}
				}
			}
		})
	}
}

func TestCreateAndUpdateCandidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	standings := cache.NewMemory(time.Hour)
	handler := NewCandidateHandler(db, cfg, standings, newTestStore(t))

	w := httptest.NewRecorder()
	handler.CreateCandidate(w, testutil.MakeRequest("POST", "/admin/candidates", models.CandidateRequest{Name: "  "}, nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	desc := "First candidate"
	w = httptest.NewRecorder()
	handler.CreateCandidate(w, testutil.MakeRequest("POST", "/admin/candidates", models.CandidateRequest{Name: "Candidate A", Description: &desc}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.Candidate
	testutil.AssertJSON(t, w, &created)
	if created.ID <= 0 || created.Name != "Candidate A" || created.VoteCount != 0 {
		t.Fatalf("Unexpected created candidate: %+v", created)
	}

	// Populate the cache so the update must invalidate it
	w = httptest.NewRecorder()
	handler.ListCandidates(w, httptest.NewRequest("GET", "/candidates", nil))

	photo := "/uploads/candidates/a.png"
	req := testutil.MakeRequest("PUT", "/admin/candidates/x", models.CandidateRequest{PhotoURL: &photo}, nil)
	req.SetPathValue("id", testIDString(created.ID))
	w = httptest.NewRecorder()
	handler.UpdateCandidate(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var updated models.Candidate
	testutil.AssertJSON(t, w, &updated)
	if updated.Name != "Candidate A" {
		t.Errorf("Expected name to be kept, got %q", updated.Name)
	}
	if updated.PhotoURL == nil || *updated.PhotoURL != photo {
		t.Errorf("Expected photo_url %q, got %v", photo, updated.PhotoURL)
	}
	if updated.Description == nil || *updated.Description != desc {
		t.Errorf("Expected description to be kept, got %v", updated.Description)
	}

	if _, ok := standings.Get(t.Context()); ok {
		t.Error("Expected standings cache to be invalidated by update")
	}

	req = testutil.MakeRequest("PUT", "/admin/candidates/x", models.CandidateRequest{Name: "Nobody"}, nil)
	req.SetPathValue("id", "99999")
	w = httptest.NewRecorder()
	handler.UpdateCandidate(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDeleteCandidateHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewCandidateHandler(db, cfg, cache.NewMemory(time.Minute), newTestStore(t))

	alice := testutil.CreateTestUser(t, db, "Alice", models.RoleVoter)
	voted := testutil.CreateTestCandidate(t, db, "Voted")
	empty := testutil.CreateTestCandidate(t, db, "Empty")
	_, code := testutil.CreateTestVoucher(t, db, alice.ID, 1)
	if _, err := ledger.NewService(db).Redeem(t.Context(), alice.ID, voted, code); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{name: "candidate with votes", id: testIDString(voted), expectedStatus: http.StatusConflict},
		{name: "candidate without votes", id: testIDString(empty), expectedStatus: http.StatusOK},
		{name: "already deleted", id: testIDString(empty), expectedStatus: http.StatusNotFound},
		{name: "malformed id", id: "0", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/admin/candidates/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			handler.DeleteCandidate(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestUploadPhoto(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	store := newTestStore(t)
	handler := NewCandidateHandler(db, cfg, cache.NewMemory(time.Minute), store)

	tests := []struct {
		name           string
		fileField      string
		file           []byte
		expectedStatus int
	}{
		{name: "png upload", fileField: "file", file: pngBytes, expectedStatus: http.StatusCreated},
		{name: "missing file", expectedStatus: http.StatusBadRequest},
		{name: "not an image", fileField: "file", file: []byte("plain text, not a picture"), expectedStatus: http.StatusBadRequest},
		{name: "too large", fileField: "file", file: append(append([]byte{}, pngBytes...), make([]byte, storage.MaxUploadSize)...), expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, "/admin/uploads", nil, tt.fileField, tt.file)
			w := httptest.NewRecorder()

			handler.UploadPhoto(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.UploadResponse
				testutil.AssertJSON(t, w, &resp)
				if !strings.HasPrefix(resp.URL, storage.URLPrefix+"candidates/") {
					t.Fatalf("Unexpected upload URL %q", resp.URL)
				}
				path := filepath.Join(store.Dir(), strings.TrimPrefix(resp.URL, storage.URLPrefix))
				if _, err := os.Stat(path); err != nil {
					t.Errorf("Expected uploaded file at %s: %v", path, err)
				}
			}
		})
	}
}
