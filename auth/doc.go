// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential, session and token generation utilities.

# Voucher Codes

Voucher codes are four random bytes rendered as uppercase hex in two groups:

	code, err := auth.GenerateVoucherCode() // VOTE-A1B2-C3D4

There are 2^32 possible codes. Uniqueness is enforced by the voucher.code
UNIQUE constraint; the ledger retries on collision. User input goes through
NormalizeVoucherCode before lookup.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, password) // ErrInvalidCredentials on mismatch

# Session Tokens

Sessions are stateless HS256 JWTs carrying the user id (sub) and role:

	token, expiresAt, err := auth.IssueSessionToken(user, secret, ttl, time.Now())
	user, err := auth.ParseSessionToken(token, secret)

Only HS256 is accepted. Expired tokens, unknown roles and bad signatures all
fail with ErrInvalidToken.
*/
package auth
