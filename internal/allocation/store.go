package allocation

import (
	"context"
	"time"

	"github.com/Marrmee/spark-voucherd/internal/domain"
)

// Store is the voucher persistence boundary the allocation service runs
// against. repository.VouchersRepository implements it over Postgres; the
// in-memory implementation backs unit tests and local tooling.
type Store interface {
	// SweepExpired resets assigned vouchers whose window elapsed before
	// now back to available. Idempotent and safe to run concurrently.
	SweepExpired(ctx context.Context, now time.Time) error

	// GetActiveByOwner returns the voucher currently held by account, or
	// domain.ErrAccountHasNoVoucher.
	GetActiveByOwner(ctx context.Context, account string) (*domain.Voucher, error)

	// OldestAvailable returns the longest-available voucher not named in
	// excluding, or domain.ErrVoucherNotFound when the pool is exhausted.
	OldestAvailable(ctx context.Context, excluding []string) (*domain.Voucher, error)

	// Claim conditionally assigns a voucher to account. Returns
	// domain.ErrRaceLost when the row was no longer claimable, and
	// domain.ErrAccountConflict when the account already holds an active
	// voucher assigned by a parallel request.
	Claim(ctx context.Context, voucherID, account string, now time.Time, window time.Duration) (*domain.Voucher, error)

	// Delete permanently removes a voucher from the pool.
	Delete(ctx context.Context, voucherID string) error

	// CountByStatus returns voucher counts keyed by status.
	CountByStatus(ctx context.Context) (map[domain.VoucherStatus]int, error)
}

// Checker asks the external verification authority whether a voucher was
// already consumed outside this system.
type Checker interface {
	CheckRedeemed(ctx context.Context, voucherID string) (bool, error)
}
