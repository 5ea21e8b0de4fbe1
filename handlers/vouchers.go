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

	"github.com/danielhkuo/voucher-vote/auth"
	"github.com/danielhkuo/voucher-vote/cliparse"
	"github.com/danielhkuo/voucher-vote/ledger"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/models"
)

type VoucherHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	ledger *ledger.Service
}

func NewVoucherHandler(db *sql.DB, cfg cliparse.Config) *VoucherHandler {
	return &VoucherHandler{db: db, cfg: cfg, ledger: ledger.NewService(db)}
}

const voucherColumns = `id, code, vote_amount, user_id, transaction_id, status, deleted_at, created_at, updated_at`

func scanVoucher(scan func(dest ...any) error) (models.Voucher, error) {
	var v models.Voucher
	var deletedAt sql.NullTime
	err := scan(&v.ID, &v.Code, &v.VoteAmount, &v.UserID, &v.TransactionID, &v.Status, &deletedAt, &v.CreatedAt, &v.UpdatedAt)
	if deletedAt.Valid {
		v.DeletedAt = &deletedAt.Time
	}
	return v, err
}

func (h *VoucherHandler) queryVouchers(ctx context.Context, where string, args ...any) ([]models.Voucher, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT `+voucherColumns+` FROM voucher
		WHERE deleted_at IS NULL`+where+`
		ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []models.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vouchers: %w", err)
	}
	return vouchers, nil
}

// ListMyVouchers handles GET /vouchers/mine
func (h *VoucherHandler) ListMyVouchers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)

	vouchers, err := h.queryVouchers(r.Context(), " AND user_id = $1 AND status = $2", user.ID, models.VoucherUnused)
	if err != nil {
		slog.Error("failed to list vouchers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoucherListResponse{Vouchers: vouchers})
}

// CheckVoucher handles POST /vouchers/check
func (h *VoucherHandler) CheckVoucher(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)

	var req models.CheckVoucherRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	code := auth.NormalizeVoucherCode(req.Code)
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voucher code required")
		return
	}

	var transactionStatus string
	v, err := scanVoucher(func(dest ...any) error {
		return h.db.QueryRowContext(r.Context(), `
			SELECT v.id, v.code, v.vote_amount, v.user_id, v.transaction_id, v.status, v.deleted_at,
			       v.created_at, v.updated_at, t.status
			FROM voucher v
			JOIN payment_transaction t ON t.id = v.transaction_id
			WHERE v.code = $1 AND v.user_id = $2 AND v.deleted_at IS NULL
		`, code, user.ID).Scan(append(dest, &transactionStatus)...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Voucher not found")
		return
	}
	if err != nil {
		slog.Error("failed to query voucher", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if transactionStatus != models.TransactionVerified {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Voucher transaction is not verified")
		return
	}
	if v.Status != models.VoucherUnused {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Voucher already used")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CheckVoucherResponse{
		Message: "Voucher is valid",
		Voucher: v,
	})
}

// IssueVoucher handles POST /admin/vouchers
func (h *VoucherHandler) IssueVoucher(w http.ResponseWriter, r *http.Request) {
	var req models.IssueVoucherRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	v, err := h.ledger.IssueVoucher(r.Context(), int64(req.TransactionID), int64(req.UserID))
	if err != nil {
		writeLedgerError(w, err, "issue voucher")
		return
	}

	admin, _ := middleware.CurrentUser(r)
	slog.Info("voucher issued",
		"voucher_id", v.ID,
		"transaction_id", v.TransactionID,
		"user_id", v.UserID,
		"vote_amount", v.VoteAmount,
		"admin_id", admin.ID,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.IssueVoucherResponse{
		Message: "Voucher issued",
		Voucher: v,
	})
}

// AdminListVouchers handles GET /admin/vouchers
func (h *VoucherHandler) AdminListVouchers(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.queryVouchers(r.Context(), "")
	if err != nil {
		slog.Error("failed to list vouchers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoucherListResponse{Vouchers: vouchers})
}

// DeleteVoucher handles DELETE /admin/vouchers/{id}
func (h *VoucherHandler) DeleteVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid voucher id")
		return
	}

	if err := h.ledger.DeleteVoucher(r.Context(), id); err != nil {
		writeLedgerError(w, err, "delete voucher")
		return
	}

	slog.Info("voucher deleted", "voucher_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Voucher deleted"})
}
