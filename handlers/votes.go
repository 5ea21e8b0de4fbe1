// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/voucher-vote/cache"
	"github.com/danielhkuo/voucher-vote/cliparse"
	"github.com/danielhkuo/voucher-vote/ledger"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/models"
)

type VoteHandler struct {
	db        *sql.DB
	cfg       cliparse.Config
	ledger    *ledger.Service
	standings cache.Standings
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config, standings cache.Standings) *VoteHandler {
	return &VoteHandler{db: db, cfg: cfg, ledger: ledger.NewService(db), standings: standings}
}

// CastVote handles POST /votes
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.ledger.Redeem(r.Context(), user.ID, int64(req.CandidateID), req.VoucherCode)
	if err != nil {
		writeLedgerError(w, err, "cast vote")
		return
	}

	h.standings.Invalidate(r.Context())

	slog.Info("vote cast",
		"vote_id", result.VoteID,
		"user_id", user.ID,
		"candidate_id", result.CandidateID,
		"vote_amount", result.VoteAmount,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		Message:    "Vote recorded",
		VoteAmount: result.VoteAmount,
		VoteID:     result.VoteID,
	})
}

// ListVotes handles GET /admin/votes
func (h *VoteHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, user_id, candidate_id, voucher_id, vote_amount, created_at
		FROM vote
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		slog.Error("failed to query votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.UserID, &v.CandidateID, &v.VoucherID, &v.VoteAmount, &v.CreatedAt); err != nil {
			slog.Error("failed to scan vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteListResponse{Votes: votes})
}

// GetTally handles GET /admin/tally
func (h *VoteHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	total, err := h.ledger.TotalVotes(r.Context())
	if err != nil {
		writeLedgerError(w, err, "read tally")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TallyResponse{TotalVotes: total})
}

// Reconcile handles POST /admin/tally/reconcile
func (h *VoteHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledger.Reconcile(r.Context())
	if err != nil {
		writeLedgerError(w, err, "reconcile tally")
		return
	}

	h.standings.Invalidate(r.Context())

	corrected := make([]models.TallyCorrection, 0, len(result.Corrected))
	for _, c := range result.Corrected {
		corrected = append(corrected, models.TallyCorrection{CandidateID: c.CandidateID, Before: c.Before, After: c.After})
	}

	if len(corrected) > 0 {
		slog.Warn("tally drift corrected", "candidates", len(corrected), "total_votes", result.TotalVotes)
	} else {
		slog.Info("tally reconciled", "total_votes", result.TotalVotes)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReconcileResponse{
		TotalVotes: result.TotalVotes,
		Corrected:  corrected,
	})
}
