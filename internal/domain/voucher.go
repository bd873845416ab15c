package domain

import (
	"net/url"
	"time"

	"github.com/google/uuid"
)

// VoucherStatus is the lifecycle state of a voucher in the pool.
type VoucherStatus string

const (
	// StatusAvailable means the voucher is unowned and claimable.
	StatusAvailable VoucherStatus = "available"
	// StatusAssigned means the voucher is held by an account pending
	// external verification.
	StatusAssigned VoucherStatus = "assigned"
	// StatusVerified means the owning account completed verification.
	StatusVerified VoucherStatus = "verified"
)

// Voucher is a single-use token entitling one account to start the external
// verification flow. Rows are seeded in state available and either progress
// to verified, fall back to available on expiry, or are deleted outright when
// the external authority reports the voucher was consumed elsewhere.
type Voucher struct {
	ID           uuid.UUID
	VoucherID    string
	Status       VoucherStatus
	IsRedeemed   bool
	OwnerAccount *string
	AssignedAt   *time.Time
	ExpiresAt    *time.Time
	VerifiedAt   *time.Time
	CreatedAt    time.Time
}

// Active reports whether the voucher currently counts against its owner's
// one-active-voucher allowance.
func (v *Voucher) Active() bool {
	return v.Status == StatusAssigned || v.Status == StatusVerified
}

// Expired reports whether an assigned voucher's window has elapsed at the
// given instant. Vouchers without an expiry (available or verified) never
// expire.
func (v *Voucher) Expired(now time.Time) bool {
	return v.Status == StatusAssigned && v.ExpiresAt != nil && v.ExpiresAt.Before(now)
}

// VerificationURL derives the URL an owner visits to complete verification.
// It is a pure function of the external endpoint and the voucher ID; the URL
// is never stored, so endpoint changes take effect immediately.
func VerificationURL(baseEndpoint, voucherID string) string {
	q := url.Values{}
	q.Set("voucherId", voucherID)
	return baseEndpoint + "?" + q.Encode()
}
