// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - RegisterRequest, LoginRequest: account access
  - CastVoteRequest: candidate_id, voucher_code
  - IssueVoucherRequest: transaction_id, user_id
  - CheckVoucherRequest: code
  - CandidateRequest: name, photo_url, description

Numeric identifiers in request bodies use FlexibleID, which accepts both
42 and "42". Blank strings decode to zero so handlers can report a missing
field instead of a JSON error.

# Domain Types

  - User: registered account (password hash never serialized)
  - Candidate: vote_count and the stored percentage share
  - Transaction: purchase of a vote package awaiting payment review
  - Voucher: single-use token carrying a fixed vote amount
  - Vote: append-only redemption record

# Vote Packages

The package catalog is fixed:

	bronze     1 vote    Rp 10.000
	silver     5 votes   Rp 25.000
	gold      10 votes   Rp 40.000
	platinum  25 votes   Rp 90.000

Transaction intake takes the amount and vote count from the catalog, never
from the client.

# Constants

Roles:

	RoleVoter = "VOTER"
	RoleAdmin = "ADMIN"

Transaction status:

	TransactionPending  = "PENDING"
	TransactionVerified = "VERIFIED"
	TransactionRejected = "REJECTED"

Voucher status:

	VoucherUnused = "UNUSED"
	VoucherUsed   = "USED"
*/
package models
