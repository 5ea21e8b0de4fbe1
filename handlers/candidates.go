// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielhkuo/voucher-vote/cache"
	"github.com/danielhkuo/voucher-vote/cliparse"
	"github.com/danielhkuo/voucher-vote/ledger"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/models"
	"github.com/danielhkuo/voucher-vote/storage"
)

type CandidateHandler struct {
	db        *sql.DB
	cfg       cliparse.Config
	ledger    *ledger.Service
	standings cache.Standings
	store     *storage.Store
}

func NewCandidateHandler(db *sql.DB, cfg cliparse.Config, standings cache.Standings, store *storage.Store) *CandidateHandler {
	return &CandidateHandler{db: db, cfg: cfg, ledger: ledger.NewService(db), standings: standings, store: store}
}

const candidateColumns = `id, name, photo_url, description, vote_count, percentage, created_at, updated_at`

func scanCandidate(scan func(dest ...any) error) (models.Candidate, error) {
	var c models.Candidate
	err := scan(&c.ID, &c.Name, &c.PhotoURL, &c.Description, &c.VoteCount, &c.Percentage, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// queryCandidates loads candidates and replaces the stored percentage with
// the 2dp share of the summed vote counts
func (h *CandidateHandler) queryCandidates(ctx context.Context, orderBy string) ([]models.Candidate, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT `+candidateColumns+` FROM candidate ORDER BY `+orderBy)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	var total int64
	for rows.Next() {
		c, err := scanCandidate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		total += c.VoteCount
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}

	for i := range candidates {
		candidates[i].Percentage = ledger.Share(candidates[i].VoteCount, total)
	}
	return candidates, nil
}

// standingsList serves the public list from cache, filling it on a miss.
// The generation is taken before the query so a vote committing mid-read
// keeps the snapshot out of the cache.
func (h *CandidateHandler) standingsList(ctx context.Context) ([]models.Candidate, error) {
	if cached, ok := h.standings.Get(ctx); ok {
		return cached, nil
	}

	generation := h.standings.Generation(ctx)
	candidates, err := h.queryCandidates(ctx, "id")
	if err != nil {
		return nil, err
	}
	h.standings.Set(ctx, generation, candidates)
	return candidates, nil
}

// ListCandidates handles GET /candidates?search=&sort=name|percentage
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.standingsList(r.Context())
	if err != nil {
		slog.Error("failed to load standings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search"))); search != "" {
		candidates = slices.DeleteFunc(candidates, func(c models.Candidate) bool {
			return !strings.Contains(strings.ToLower(c.Name), search)
		})
	}

	switch r.URL.Query().Get("sort") {
	case "name":
		slices.SortStableFunc(candidates, func(a, b models.Candidate) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	default:
		slices.SortStableFunc(candidates, func(a, b models.Candidate) int {
			if a.VoteCount != b.VoteCount {
				if a.VoteCount > b.VoteCount {
					return -1
				}
				return 1
			}
			return 0
		})
	}

	middleware.JSONResponse(w, http.StatusOK, models.CandidateListResponse{Candidates: candidates})
}

// GetCandidate handles GET /candidates/{id}
func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid candidate id")
		return
	}

	candidates, err := h.standingsList(r.Context())
	if err != nil {
		slog.Error("failed to load standings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	i := slices.IndexFunc(candidates, func(c models.Candidate) bool { return c.ID == id })
	if i < 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, candidates[i])
}

// AdminListCandidates handles GET /admin/candidates
func (h *CandidateHandler) AdminListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.queryCandidates(r.Context(), "created_at DESC, id DESC")
	if err != nil {
		slog.Error("failed to list candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CandidateListResponse{Candidates: candidates})
}

// AdminGetCandidate handles GET /admin/candidates/{id}
func (h *CandidateHandler) AdminGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid candidate id")
		return
	}

	c, err := scanCandidate(h.db.QueryRowContext(r.Context(), `SELECT `+candidateColumns+` FROM candidate WHERE id = $1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, c)
}

// CreateCandidate handles POST /admin/candidates
func (h *CandidateHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now()
	c := models.Candidate{
		Name:        name,
		PhotoURL:    req.PhotoURL,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO candidate (name, photo_url, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.Name, c.PhotoURL, c.Description, now, now).Scan(&c.ID)
	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	h.standings.Invalidate(r.Context())
	slog.Info("candidate created", "candidate_id", c.ID, "name", c.Name)

	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateCandidate handles PUT /admin/candidates/{id}
// Fields left out of the body keep their current value.
func (h *CandidateHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid candidate id")
		return
	}

	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ctx := r.Context()
	c, err := scanCandidate(h.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidate WHERE id = $1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		c.Name = name
	}
	if req.PhotoURL != nil {
		c.PhotoURL = req.PhotoURL
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	c.UpdatedAt = time.Now()

	// vote_count and percentage are owned by the ledger and never written here
	_, err = h.db.ExecContext(ctx, `
		UPDATE candidate SET name = $1, photo_url = $2, description = $3, updated_at = $4
		WHERE id = $5
	`, c.Name, c.PhotoURL, c.Description, c.UpdatedAt, id)
	if err != nil {
		slog.Error("failed to update candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update candidate")
		return
	}

	h.standings.Invalidate(ctx)
	slog.Info("candidate updated", "candidate_id", id)

	middleware.JSONResponse(w, http.StatusOK, c)
}

// DeleteCandidate handles DELETE /admin/candidates/{id}
func (h *CandidateHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid candidate id")
		return
	}

	if err := h.ledger.DeleteCandidate(r.Context(), id); err != nil {
		writeLedgerError(w, err, "delete candidate")
		return
	}

	h.standings.Invalidate(r.Context())
	slog.Info("candidate deleted", "candidate_id", id)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Candidate deleted"})
}

// UploadPhoto handles POST /admin/uploads
func (h *CandidateHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.ErrorResponse(w, http.StatusBadRequest, storage.ErrTooLarge.Error())
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	url, err := h.store.SaveImage("candidates", "candidate", file)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	slog.Info("candidate photo uploaded", "url", url)
	middleware.JSONResponse(w, http.StatusCreated, models.UploadResponse{URL: url})
}
