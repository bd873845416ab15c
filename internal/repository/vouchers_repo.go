package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/Marrmee/spark-voucherd/internal/domain"
)

// VouchersRepository handles voucher persistence.
type VouchersRepository struct {
	db *sql.DB
}

// NewVouchersRepository creates a new vouchers repository.
func NewVouchersRepository(db *sql.DB) *VouchersRepository {
	return &VouchersRepository{db: db}
}

const voucherColumns = `id, voucher_id, status, is_redeemed, owner_account, assigned_at, expires_at, verified_at, created_at`

func scanVoucher(row *sql.Row) (*domain.Voucher, error) {
	v := &domain.Voucher{}
	err := row.Scan(
		&v.ID, &v.VoucherID, &v.Status, &v.IsRedeemed, &v.OwnerAccount,
		&v.AssignedAt, &v.ExpiresAt, &v.VerifiedAt, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create inserts a new available voucher. Used by pool seeding and tests.
func (r *VouchersRepository) Create(ctx context.Context, v *domain.Voucher) error {
	return r.CreateTx(ctx, r.db, v)
}

// CreateTx inserts a new voucher within a transaction.
func (r *VouchersRepository) CreateTx(ctx context.Context, q Querier, v *domain.Voucher) error {
	query := `
		INSERT INTO vouchers (id, voucher_id, status, is_redeemed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.ExecContext(ctx, query,
		v.ID, v.VoucherID, v.Status, v.IsRedeemed, v.CreatedAt,
	)
	return err
}

// SweepExpired resets every assigned voucher whose window has elapsed back to
// available, clearing the owner and assignment timestamps. The update is
// unconditional per row, so concurrent sweeps converge to the same state.
func (r *VouchersRepository) SweepExpired(ctx context.Context, now time.Time) error {
	query := `
		UPDATE vouchers
		SET status = 'available', owner_account = NULL, assigned_at = NULL, expires_at = NULL
		WHERE status = 'assigned' AND expires_at < $1
	`
	_, err := r.db.ExecContext(ctx, query, now)
	return err
}

// GetActiveByOwner retrieves the voucher currently held by an account, if
// any. At most one row can match thanks to the partial unique index on
// owner_account.
func (r *VouchersRepository) GetActiveByOwner(ctx context.Context, account string) (*domain.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE owner_account = $1 AND status IN ('assigned', 'verified')
	`
	v, err := scanVoucher(r.db.QueryRowContext(ctx, query, account))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountHasNoVoucher
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// exclusionList prepares the excluding slice for binding. A nil slice
// encodes as SQL NULL through pq, and `voucher_id <> ALL(NULL)` matches no
// rows, so the empty case must bind as an empty array instead.
func exclusionList(excluding []string) pq.StringArray {
	if len(excluding) == 0 {
		return pq.StringArray{}
	}
	return pq.StringArray(excluding)
}

// OldestAvailable retrieves the longest-available voucher, FIFO by creation
// time. Vouchers named in excluding are skipped; the allocation loop uses
// this to avoid re-asking the authority about a candidate whose check was
// already inconclusive in the same request.
func (r *VouchersRepository) OldestAvailable(ctx context.Context, excluding []string) (*domain.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE status = 'available' AND voucher_id <> ALL($1)
		ORDER BY created_at ASC
		LIMIT 1
	`
	v, err := scanVoucher(r.db.QueryRowContext(ctx, query, exclusionList(excluding)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVoucherNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Claim assigns a candidate voucher to an account via a conditional update
// inside a transaction. The WHERE clause re-checks that the row is still
// available and unredeemed at commit time; zero rows affected means a
// concurrent request won the candidate and the caller should move on.
func (r *VouchersRepository) Claim(ctx context.Context, voucherID, account string, now time.Time, window time.Duration) (*domain.Voucher, error) {
	var claimed *domain.Voucher
	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE vouchers
			SET status = 'assigned', owner_account = $2, assigned_at = $3, expires_at = $4
			WHERE voucher_id = $1 AND status = 'available' AND is_redeemed = false
			RETURNING ` + voucherColumns + `
		`
		v := &domain.Voucher{}
		err := tx.QueryRowContext(ctx, query,
			voucherID, account, now, now.Add(window),
		).Scan(
			&v.ID, &v.VoucherID, &v.Status, &v.IsRedeemed, &v.OwnerAccount,
			&v.AssignedAt, &v.ExpiresAt, &v.VerifiedAt, &v.CreatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrRaceLost
		}
		if err != nil {
			return err
		}
		claimed = v
		return nil
	})
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "vouchers_owner_active_idx" {
		// The same account was assigned a voucher by a parallel request
		// after this one's lookup. The caller re-reads that assignment.
		return nil, domain.ErrAccountConflict
	}
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Delete permanently removes a voucher reported as redeemed outside this
// system. The row is never offered again.
func (r *VouchersRepository) Delete(ctx context.Context, voucherID string) error {
	query := `DELETE FROM vouchers WHERE voucher_id = $1`
	result, err := r.db.ExecContext(ctx, query, voucherID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrVoucherNotFound
	}
	return nil
}

// CountByStatus returns the pool-analytics aggregate: voucher counts keyed by
// status.
func (r *VouchersRepository) CountByStatus(ctx context.Context) (map[domain.VoucherStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM vouchers
		GROUP BY status
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.VoucherStatus]int)
	for rows.Next() {
		var status domain.VoucherStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
