// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the voucher-vote API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: Registration, sign-in, session lookup, user listing
  - TransactionHandler: Package purchases and admin verification
  - VoucherHandler: Voucher lookup, manual issuance, soft delete
  - VoteHandler: Vote casting, vote audit, tally reconcile
  - CandidateHandler: Public standings and candidate administration

Handlers are created via constructor functions that accept *sql.DB and Config,
plus the standings cache and upload store where they need them:

	voteHandler := handlers.NewVoteHandler(db, cfg, standings)

State changes that touch vouchers, votes or tallies go through ledger.Service.
Handlers only parse input, call the ledger and map its errors to status codes.

# Purchase Flow

	POST /transactions                    → CreateTransaction (PENDING, proof uploaded)
	POST /admin/transactions/{id}/verify  → VerifyTransaction (VERIFIED + voucher)
	POST /admin/transactions/{id}/reject  → RejectTransaction

# Voting Flow

	GET  /vouchers/mine  → ListMyVouchers
	POST /vouchers/check → CheckVoucher
	POST /votes          → CastVote (spends the voucher)

The caller comes from middleware.CurrentUser; routes are wrapped with
RequireUser or RequireAdmin by the router.

# Error Mapping

	ErrUnauthorized                                   → 401
	ErrInvalidInput, ErrInvalidVoucher                → 400
	ErrCandidateNotFound, ErrTransactionNotFound, ... → 404
	ErrTransactionNotVerified, ErrVoucherAlreadyIssued → 409
	anything else                                     → 500 (logged)
*/
package handlers
