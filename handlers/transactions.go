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
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/voucher-vote/cliparse"
	"github.com/danielhkuo/voucher-vote/ledger"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/models"
	"github.com/danielhkuo/voucher-vote/storage"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	// maxPage keeps (page-1)*limit well inside int32
	maxPage = 1_000_000
)

var phonePattern = regexp.MustCompile(`^[0-9+]{8,15}$`)

type TransactionHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	ledger *ledger.Service
	store  *storage.Store
}

func NewTransactionHandler(db *sql.DB, cfg cliparse.Config, store *storage.Store) *TransactionHandler {
	return &TransactionHandler{db: db, cfg: cfg, ledger: ledger.NewService(db), store: store}
}

// CreateTransaction handles POST /transactions (multipart form)
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)

	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)
	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.ErrorResponse(w, http.StatusBadRequest, storage.ErrTooLarge.Error())
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	pkg, ok := models.FindPackage(r.FormValue("package_id"))
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid package_id")
		return
	}

	phone := strings.TrimSpace(r.FormValue("phone_number"))
	if !phonePattern.MatchString(phone) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "phone_number must be 8-15 digits")
		return
	}

	file, _, err := r.FormFile("proof_image")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "proof_image is required")
		return
	}
	defer file.Close()

	proofURL, err := h.store.SaveImage("payment-proofs", fmt.Sprintf("payment-proof-%d", user.ID), file)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	now := time.Now()
	t := models.Transaction{
		UserID:            user.ID,
		PhoneNumber:       phone,
		Amount:            pkg.Amount,
		VotePackageAmount: pkg.VoteAmount,
		PaymentProofURL:   proofURL,
		Status:            models.TransactionPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO payment_transaction (user_id, phone_number, amount, vote_package_amount, payment_proof_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, t.UserID, t.PhoneNumber, t.Amount, t.VotePackageAmount, t.PaymentProofURL, t.Status, now, now).Scan(&t.ID)
	if err != nil {
		slog.Error("failed to insert transaction", "error", err)
		if rmErr := h.store.Remove(proofURL); rmErr != nil {
			slog.Warn("failed to remove orphaned payment proof", "url", proofURL, "error", rmErr)
		}
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	slog.Info("transaction submitted",
		"transaction_id", t.ID,
		"user_id", user.ID,
		"package", pkg.ID,
		"amount", t.Amount,
	)

	middleware.JSONResponse(w, http.StatusCreated, t)
}

// ListMyTransactions handles GET /transactions/mine
func (h *TransactionHandler) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r)

	transactions, total, err := h.queryTransactions(r.Context(), transactionFilter{UserID: user.ID})
	if err != nil {
		slog.Error("failed to list transactions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TransactionListResponse{
		Transactions: transactions,
		Total:        total,
		Page:         1,
		Limit:        total,
	})
}

// AdminListTransactions handles GET /admin/transactions?page=&limit=&status=&search=
func (h *TransactionHandler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page > maxPage {
		page = maxPage
	}

	status := strings.ToUpper(q.Get("status"))
	if status == "ALL" {
		status = ""
	}

	filter := transactionFilter{
		Status: status,
		Search: strings.TrimSpace(q.Get("search")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	transactions, total, err := h.queryTransactions(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list transactions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TransactionListResponse{
		Transactions: transactions,
		Total:        total,
		Page:         page,
		Limit:        limit,
	})
}

// VerifyTransaction handles POST /admin/transactions/{id}/verify
func (h *TransactionHandler) VerifyTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	t, voucher, err := h.ledger.VerifyTransaction(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err, "verify transaction")
		return
	}

	admin, _ := middleware.CurrentUser(r)
	slog.Info("transaction verified",
		"transaction_id", id,
		"admin_id", admin.ID,
		"voucher_id", voucher.ID,
		"vote_amount", voucher.VoteAmount,
	)

	middleware.JSONResponse(w, http.StatusOK, models.TransactionActionResponse{
		Message:     "Transaction verified and voucher issued",
		Transaction: t,
		Voucher:     &voucher,
	})
}

// RejectTransaction handles POST /admin/transactions/{id}/reject
func (h *TransactionHandler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	t, err := h.ledger.RejectTransaction(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err, "reject transaction")
		return
	}

	admin, _ := middleware.CurrentUser(r)
	slog.Info("transaction rejected", "transaction_id", id, "admin_id", admin.ID)

	middleware.JSONResponse(w, http.StatusOK, models.TransactionActionResponse{
		Message:     "Transaction rejected",
		Transaction: t,
	})
}

// CheckTransactionVoucher handles GET /admin/transactions/{id}/check-voucher
func (h *TransactionHandler) CheckTransactionVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	ctx := r.Context()
	var exists bool
	if err := h.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM payment_transaction WHERE id = $1)`, id).Scan(&exists); err != nil {
		slog.Error("failed to query transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, ledger.ErrTransactionNotFound.Error())
		return
	}

	vouchers, err := h.vouchersByTransaction(ctx, []int64{id})
	if err != nil {
		slog.Error("failed to query vouchers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	list := vouchers[id]
	if list == nil {
		list = []models.VoucherSummary{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.CheckTransactionVoucherResponse{
		HasVoucher: len(list) > 0,
		Vouchers:   list,
	})
}

type transactionFilter struct {
	UserID int64
	Status string
	Search string
	Limit  int // 0 means no limit
	Offset int
}

func (f transactionFilter) where() (string, []any) {
	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.UserID > 0 {
		clauses = append(clauses, "t.user_id = "+arg(f.UserID))
	}
	if f.Status != "" {
		clauses = append(clauses, "t.status = "+arg(f.Status))
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		search := "LOWER(u.name) LIKE " + arg(like) + " OR LOWER(u.email) LIKE " + arg(like)
		if id, err := strconv.ParseInt(f.Search, 10, 64); err == nil {
			search = "t.id = " + arg(id) + " OR " + search
		}
		clauses = append(clauses, "("+search+")")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// queryTransactions returns one page of transactions with their owner and
// non-deleted vouchers, plus the unpaged total
func (h *TransactionHandler) queryTransactions(ctx context.Context, f transactionFilter) ([]models.TransactionWithRelations, int, error) {
	where, args := f.where()

	var total int
	err := h.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payment_transaction t JOIN app_user u ON u.id = t.user_id`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT t.id, t.user_id, t.phone_number, t.amount, t.vote_package_amount, t.payment_proof_url,
		       t.status, t.created_at, t.updated_at, u.id, u.name, u.email
		FROM payment_transaction t
		JOIN app_user u ON u.id = t.user_id` + where + `
		ORDER BY t.created_at DESC, t.id DESC`
	if f.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(f.Limit) + " OFFSET " + strconv.Itoa(f.Offset)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}

	transactions := []models.TransactionWithRelations{}
	var ids []int64
	for rows.Next() {
		var t models.TransactionWithRelations
		err := rows.Scan(&t.ID, &t.UserID, &t.PhoneNumber, &t.Amount, &t.VotePackageAmount, &t.PaymentProofURL,
			&t.Status, &t.CreatedAt, &t.UpdatedAt, &t.User.ID, &t.User.Name, &t.User.Email)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	rows.Close()

	vouchers, err := h.vouchersByTransaction(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range transactions {
		transactions[i].Vouchers = vouchers[transactions[i].ID]
		if transactions[i].Vouchers == nil {
			transactions[i].Vouchers = []models.VoucherSummary{}
		}
	}

	return transactions, total, nil
}

func (h *TransactionHandler) vouchersByTransaction(ctx context.Context, ids []int64) (map[int64][]models.VoucherSummary, error) {
	out := make(map[int64][]models.VoucherSummary)
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT transaction_id, id, code, vote_amount, status
		FROM voucher
		WHERE deleted_at IS NULL AND transaction_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var transactionID int64
		var v models.VoucherSummary
		if err := rows.Scan(&transactionID, &v.ID, &v.Code, &v.VoteAmount, &v.Status); err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		out[transactionID] = append(out[transactionID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vouchers: %w", err)
	}
	return out, nil
}
