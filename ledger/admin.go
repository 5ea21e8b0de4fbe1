// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/voucher-vote/models"
)

// DeleteCandidate removes a candidate that has never received a vote
func (s *Service) DeleteCandidate(ctx context.Context, candidateID int64) error {
	if candidateID <= 0 {
		return invalidInput("candidate id required")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists, hasVotes bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM candidate WHERE id = $1),
			       EXISTS(SELECT 1 FROM vote WHERE candidate_id = $1)
		`, candidateID).Scan(&exists, &hasVotes)
		if err != nil {
			return fmt.Errorf("failed to look up candidate: %w", err)
		}
		if !exists {
			return ErrCandidateNotFound
		}
		if hasVotes {
			return ErrCandidateHasVotes
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM candidate WHERE id = $1`, candidateID)
		if err != nil {
			return fmt.Errorf("failed to delete candidate: %w", err)
		}
		return nil
	})
}

// DeleteVoucher soft-deletes an UNUSED voucher. USED vouchers back a vote and stay.
func (s *Service) DeleteVoucher(ctx context.Context, voucherID int64) error {
	if voucherID <= 0 {
		return invalidInput("voucher id required")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE voucher SET deleted_at = $1, updated_at = $1
			WHERE id = $2 AND status = $3 AND deleted_at IS NULL
		`, s.now(), voucherID, models.VoucherUnused)
		if err != nil {
			return fmt.Errorf("failed to delete voucher: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete voucher: %w", err)
		}
		if affected == 1 {
			return nil
		}

		var status string
		var deleted bool
		err = tx.QueryRowContext(ctx, `SELECT status, deleted_at IS NOT NULL FROM voucher WHERE id = $1`, voucherID).Scan(&status, &deleted)
		if errors.Is(err, sql.ErrNoRows) || deleted {
			return ErrVoucherNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to look up voucher: %w", err)
		}
		return ErrVoucherUsed
	})
}
