// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/voucher-vote/ledger"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/storage"
)

// ledgerStatus maps ledger errors to HTTP status codes
func ledgerStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, ledger.ErrInvalidVoucher):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrCandidateNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ledger.ErrVoucherNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrTransactionNotVerified),
		errors.Is(err, ledger.ErrTransactionNotPending),
		errors.Is(err, ledger.ErrVoucherAlreadyIssued),
		errors.Is(err, ledger.ErrVoucherUsed),
		errors.Is(err, ledger.ErrCandidateHasVotes):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeLedgerError renders a ledger error. Internal errors are logged and
// replaced with a generic message.
func writeLedgerError(w http.ResponseWriter, err error, action string) {
	status := ledgerStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("failed to "+action, "error", err)
		middleware.ErrorResponse(w, status, "Internal server error")
		return
	}
	if status == http.StatusUnauthorized {
		middleware.ErrorResponse(w, status, "Unauthorized")
		return
	}
	middleware.ErrorResponse(w, status, err.Error())
}

func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrEmpty):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("failed to store upload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store file")
	}
}

// pathID parses a positive integer path parameter
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// uploadBodyLimit leaves room for multipart framing around a maximum-size file
const uploadBodyLimit = storage.MaxUploadSize + 512<<10
