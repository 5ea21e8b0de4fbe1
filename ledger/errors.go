// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "errors"

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidVoucher         = errors.New("voucher invalid or already used")
	ErrCandidateNotFound      = errors.New("candidate not found")
	ErrCandidateHasVotes      = errors.New("candidate already has votes")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrTransactionNotVerified = errors.New("only VERIFIED transactions can receive a voucher")
	ErrTransactionNotPending  = errors.New("transaction is not PENDING")
	ErrVoucherAlreadyIssued   = errors.New("a voucher was already issued for this transaction")
	ErrVoucherNotFound        = errors.New("voucher not found")
	ErrVoucherUsed            = errors.New("voucher already used")
)

// errCodeCollision aborts an issuing transaction so it can be retried with a fresh code
var errCodeCollision = errors.New("voucher code collision")

// InputError carries the user-facing reason for a rejected input.
// errors.Is(err, ErrInvalidInput) matches it.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(message string) error {
	return &InputError{Message: message}
}
