// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

// lockTally bumps the running total. The row lock it takes is held until
// commit, so redemptions touch candidate rows one at a time.
func lockTally(ctx context.Context, tx *sql.Tx, delta int64, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE tally SET total_votes = total_votes + $1, updated_at = $2 WHERE id = 1
	`, delta, now)
	if err != nil {
		return fmt.Errorf("failed to update tally: %w", err)
	}
	return nil
}

// recalculateTally rewrites every candidate's percentage from the vote ledger
// and returns the ledger total. With no votes it leaves every share at 0.
func recalculateTally(ctx context.Context, tx *sql.Tx) (int64, error) {
	var total int64
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(vote_amount), 0) FROM vote`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total votes: %w", err)
	}

	if total == 0 {
		_, err = tx.ExecContext(ctx, `UPDATE candidate SET percentage = 0`)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE candidate SET percentage = vote_count * 100.0 / $1`, total)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update percentages: %w", err)
	}

	return total, nil
}

// Share is a candidate's percentage of total, rounded to 2 decimals for display
func Share(voteCount, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(voteCount)*100/float64(total)*100) / 100
}

// Reconciliation reports the outcome of Reconcile
type Reconciliation struct {
	TotalVotes int64
	Corrected  []Correction
}

// Correction records a candidate whose vote_count disagreed with its votes
type Correction struct {
	CandidateID int64
	Before      int64
	After       int64
}

// Reconcile recomputes every candidate's vote_count from the vote ledger,
// then the running total and every percentage.
func (s *Service) Reconcile(ctx context.Context) (Reconciliation, error) {
	var result Reconciliation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		if err := lockTally(ctx, tx, 0, now); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT c.id, c.vote_count, COALESCE(SUM(v.vote_amount), 0)
			FROM candidate c
			LEFT JOIN vote v ON v.candidate_id = c.id
			GROUP BY c.id, c.vote_count
			ORDER BY c.id
		`)
		if err != nil {
			return fmt.Errorf("failed to scan candidate tallies: %w", err)
		}

		var corrections []Correction
		for rows.Next() {
			var c Correction
			if err := rows.Scan(&c.CandidateID, &c.Before, &c.After); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan candidate tally: %w", err)
			}
			if c.Before != c.After {
				corrections = append(corrections, c)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan candidate tallies: %w", err)
		}
		rows.Close()

		for _, c := range corrections {
			_, err := tx.ExecContext(ctx, `UPDATE candidate SET vote_count = $1 WHERE id = $2`, c.After, c.CandidateID)
			if err != nil {
				return fmt.Errorf("failed to correct candidate %d: %w", c.CandidateID, err)
			}
		}

		total, err := recalculateTally(ctx, tx)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE tally SET total_votes = $1, updated_at = $2 WHERE id = 1`, total, now)
		if err != nil {
			return fmt.Errorf("failed to reset tally: %w", err)
		}

		result = Reconciliation{TotalVotes: total, Corrected: corrections}
		return nil
	})
	if err != nil {
		return Reconciliation{}, err
	}

	if result.Corrected == nil {
		result.Corrected = []Correction{}
	}
	return result, nil
}

// TotalVotes reads the running total maintained alongside the vote ledger
func (s *Service) TotalVotes(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT total_votes FROM tally WHERE id = 1`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to read tally: %w", err)
	}
	return total, nil
}
