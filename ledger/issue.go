// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/voucher-vote/auth"
	"github.com/danielhkuo/voucher-vote/db"
	"github.com/danielhkuo/voucher-vote/models"
)

// MaxCodeAttempts bounds how many fresh codes an issuance tries before giving up
const MaxCodeAttempts = 5

// generateCode is swapped in tests to force collisions
var generateCode = auth.GenerateVoucherCode

// IssueVoucher creates the voucher for a VERIFIED transaction. A zero userID
// means the transaction's owner; any other value must match it.
func (s *Service) IssueVoucher(ctx context.Context, transactionID, userID int64) (models.Voucher, error) {
	if transactionID <= 0 {
		return models.Voucher{}, invalidInput("transaction id required")
	}
	if userID < 0 {
		return models.Voucher{}, invalidInput("invalid user id")
	}

	var voucher models.Voucher
	err := s.withCodeRetry(ctx, func(tx *sql.Tx) error {
		v, err := issueVoucher(ctx, tx, transactionID, userID, s.now())
		voucher = v
		return err
	})
	if err != nil {
		return models.Voucher{}, err
	}
	return voucher, nil
}

// VerifyTransaction moves a PENDING transaction to VERIFIED and issues its
// voucher in the same database transaction.
func (s *Service) VerifyTransaction(ctx context.Context, transactionID int64) (models.Transaction, models.Voucher, error) {
	if transactionID <= 0 {
		return models.Transaction{}, models.Voucher{}, invalidInput("transaction id required")
	}

	var transaction models.Transaction
	var voucher models.Voucher
	err := s.withCodeRetry(ctx, func(tx *sql.Tx) error {
		now := s.now()
		if err := transitionPending(ctx, tx, transactionID, models.TransactionVerified, now); err != nil {
			return err
		}

		v, err := issueVoucher(ctx, tx, transactionID, 0, now)
		if err != nil {
			return err
		}

		t, err := getTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		transaction, voucher = t, v
		return nil
	})
	if err != nil {
		return models.Transaction{}, models.Voucher{}, err
	}
	return transaction, voucher, nil
}

// RejectTransaction moves a PENDING transaction to REJECTED. No voucher is issued.
func (s *Service) RejectTransaction(ctx context.Context, transactionID int64) (models.Transaction, error) {
	if transactionID <= 0 {
		return models.Transaction{}, invalidInput("transaction id required")
	}

	var transaction models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := transitionPending(ctx, tx, transactionID, models.TransactionRejected, s.now()); err != nil {
			return err
		}
		t, err := getTransaction(ctx, tx, transactionID)
		transaction = t
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return transaction, nil
}

// withCodeRetry reruns fn in a fresh transaction while it fails on a voucher code collision
func (s *Service) withCodeRetry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		err := s.withTx(ctx, fn)
		if !errors.Is(err, errCodeCollision) {
			return err
		}
		slog.Warn("voucher code collision, retrying", "attempt", attempt)
	}
	return fmt.Errorf("failed to generate a unique voucher code after %d attempts", MaxCodeAttempts)
}

func transitionPending(ctx context.Context, tx *sql.Tx, transactionID int64, status string, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE payment_transaction SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, status, now, transactionID, models.TransactionPending)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Zero rows: either missing or no longer PENDING
	if _, err := getTransaction(ctx, tx, transactionID); err != nil {
		return err
	}
	return ErrTransactionNotPending
}

func issueVoucher(ctx context.Context, tx *sql.Tx, transactionID, userID int64, now time.Time) (models.Voucher, error) {
	t, err := getTransaction(ctx, tx, transactionID)
	if err != nil {
		return models.Voucher{}, err
	}
	if t.Status != models.TransactionVerified {
		return models.Voucher{}, ErrTransactionNotVerified
	}
	if userID != 0 && userID != t.UserID {
		return models.Voucher{}, invalidInput("user does not own this transaction")
	}

	// Soft-deleted vouchers still count: a transaction is paid out once
	var existing int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM voucher WHERE transaction_id = $1`, transactionID).Scan(&existing)
	if err != nil {
		return models.Voucher{}, fmt.Errorf("failed to check existing vouchers: %w", err)
	}
	if existing > 0 {
		return models.Voucher{}, ErrVoucherAlreadyIssued
	}

	code, err := generateCode()
	if err != nil {
		return models.Voucher{}, err
	}

	v := models.Voucher{
		Code:          code,
		VoteAmount:    t.VotePackageAmount,
		UserID:        t.UserID,
		TransactionID: transactionID,
		Status:        models.VoucherUnused,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO voucher (code, vote_amount, user_id, transaction_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, v.Code, v.VoteAmount, v.UserID, v.TransactionID, v.Status, now, now).Scan(&v.ID)
	if db.IsUniqueViolation(err, "voucher", "code") {
		return models.Voucher{}, errCodeCollision
	}
	if db.IsUniqueViolation(err, "voucher", "transaction_id") {
		return models.Voucher{}, ErrVoucherAlreadyIssued
	}
	if err != nil {
		return models.Voucher{}, fmt.Errorf("failed to create voucher: %w", err)
	}

	return v, nil
}

func getTransaction(ctx context.Context, q querier, transactionID int64) (models.Transaction, error) {
	var t models.Transaction
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, phone_number, amount, vote_package_amount, payment_proof_url, status, created_at, updated_at
		FROM payment_transaction WHERE id = $1
	`, transactionID).Scan(&t.ID, &t.UserID, &t.PhoneNumber, &t.Amount, &t.VotePackageAmount,
		&t.PaymentProofURL, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to load transaction: %w", err)
	}
	return t, nil
}
