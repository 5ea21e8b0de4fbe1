// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/voucher-vote/auth"
	"github.com/danielhkuo/voucher-vote/models"
)

// Redemption is the outcome of a successful vote
type Redemption struct {
	VoteID      int64
	VoucherID   int64
	CandidateID int64
	VoteAmount  int
}

// Redeem spends one of the voter's vouchers on a candidate. The vote, the
// voucher transition, the candidate increment and the percentage rewrite
// commit together or not at all.
func (s *Service) Redeem(ctx context.Context, voterID, candidateID int64, code string) (Redemption, error) {
	if voterID <= 0 {
		return Redemption{}, ErrUnauthorized
	}
	if candidateID <= 0 {
		return Redemption{}, invalidInput("candidate id required")
	}
	code = auth.NormalizeVoucherCode(code)
	if code == "" {
		return Redemption{}, invalidInput("voucher code required")
	}

	var result Redemption
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var voucherID int64
		var voteAmount int
		err := tx.QueryRowContext(ctx, `
			SELECT id, vote_amount FROM voucher
			WHERE code = $1 AND user_id = $2 AND status = $3 AND deleted_at IS NULL
		`, code, voterID, models.VoucherUnused).Scan(&voucherID, &voteAmount)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidVoucher
		}
		if err != nil {
			return fmt.Errorf("failed to look up voucher: %w", err)
		}

		var exists bool
		err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM candidate WHERE id = $1)`, candidateID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to look up candidate: %w", err)
		}
		if !exists {
			return ErrCandidateNotFound
		}

		now := s.now()

		// Compare-and-swap: a concurrent redemption that got here first leaves zero rows
		res, err := tx.ExecContext(ctx, `
			UPDATE voucher SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4 AND deleted_at IS NULL
		`, models.VoucherUsed, now, voucherID, models.VoucherUnused)
		if err != nil {
			return fmt.Errorf("failed to mark voucher used: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to mark voucher used: %w", err)
		}
		if affected != 1 {
			return ErrInvalidVoucher
		}

		if err := lockTally(ctx, tx, int64(voteAmount), now); err != nil {
			return err
		}

		var voteID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO vote (user_id, candidate_id, voucher_id, vote_amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, voterID, candidateID, voucherID, voteAmount, now).Scan(&voteID)
		if err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE candidate SET vote_count = vote_count + $1 WHERE id = $2`, voteAmount, candidateID)
		if err != nil {
			return fmt.Errorf("failed to increment candidate tally: %w", err)
		}

		if _, err := recalculateTally(ctx, tx); err != nil {
			return err
		}

		result = Redemption{
			VoteID:      voteID,
			VoucherID:   voucherID,
			CandidateID: candidateID,
			VoteAmount:  voteAmount,
		}
		return nil
	})
	if err != nil {
		return Redemption{}, err
	}

	return result, nil
}
