package domain

import "errors"

// Allocation errors
var (
	ErrInvalidAccount          = errors.New("invalid account identifier")
	ErrPoolExhausted           = errors.New("voucher pool exhausted")
	ErrVerificationUnavailable = errors.New("verification authority unavailable")
	ErrVoucherNotFound         = errors.New("voucher not found")
	ErrAccountHasNoVoucher     = errors.New("account has no active voucher")
)

// ErrRaceLost signals that a conditional claim matched zero rows because a
// concurrent request won the candidate. It never crosses the service
// boundary; the allocation loop moves on to the next candidate.
var ErrRaceLost = errors.New("claim lost race for candidate")

// ErrAccountConflict signals that a claim hit the one-active-voucher-per-
// account constraint: a parallel request for the same account assigned a
// voucher between the idempotent lookup and this claim. It never crosses the
// service boundary; the allocation loop re-reads the account's assignment.
var ErrAccountConflict = errors.New("account assigned concurrently")
