// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger owns every write that moves value through the system:
voucher issuance, voucher redemption and the candidate tally.

# Redemption

Redeem checks, in order: an authenticated voter, a candidate id, a voucher
code, an UNUSED voucher owned by the voter, and an existing candidate. The
first failing check wins. Not-found, not-owned and already-used vouchers all
return ErrInvalidVoucher so codes cannot be probed.

Inside one database transaction it then:

 1. marks the voucher USED with a compare-and-swap on status
 2. bumps the single-row tally (this orders concurrent redemptions)
 3. inserts the vote
 4. adds the vote amount to the candidate's vote_count
 5. rewrites every candidate's percentage from the vote ledger

Any error rolls everything back. Two redemptions of the same voucher yield
exactly one vote; the loser sees ErrInvalidVoucher.

# Issuance

IssueVoucher and VerifyTransaction create at most one voucher per
transaction, enforced by a UNIQUE constraint on voucher.transaction_id.
Code collisions retry with a fresh code up to MaxCodeAttempts times.

# Errors

Domain failures are sentinel errors. Input problems are *InputError values
that match ErrInvalidInput with errors.Is and carry a user-facing message.
*/
package ledger
