package allocation

import (
	"context"
	"sync"
	"time"

	"github.com/Marrmee/spark-voucherd/internal/domain"
)

// MemoryStore is an in-memory Store with the same conditional-claim
// semantics as the Postgres repository. All mutations happen under one
// mutex, so a claim observes and updates the row atomically.
type MemoryStore struct {
	mu       sync.Mutex
	vouchers map[string]*domain.Voucher
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vouchers: make(map[string]*domain.Voucher)}
}

// Put inserts or replaces a voucher. Test and seeding helper.
func (s *MemoryStore) Put(v *domain.Voucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.vouchers[v.VoucherID] = &cp
}

// Get returns a copy of the voucher, if present. Test helper.
func (s *MemoryStore) Get(voucherID string) (*domain.Voucher, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vouchers[voucherID]
	if !ok {
		return nil, false
	}
	cp := *v
	return &cp, true
}

func (s *MemoryStore) SweepExpired(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vouchers {
		if v.Status == domain.StatusAssigned && v.ExpiresAt != nil && v.ExpiresAt.Before(now) {
			v.Status = domain.StatusAvailable
			v.OwnerAccount = nil
			v.AssignedAt = nil
			v.ExpiresAt = nil
		}
	}
	return nil
}

func (s *MemoryStore) GetActiveByOwner(_ context.Context, account string) (*domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vouchers {
		if v.Active() && v.OwnerAccount != nil && *v.OwnerAccount == account {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountHasNoVoucher
}

func (s *MemoryStore) OldestAvailable(_ context.Context, excluding []string) (*domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	skip := make(map[string]bool, len(excluding))
	for _, id := range excluding {
		skip[id] = true
	}

	var oldest *domain.Voucher
	for _, v := range s.vouchers {
		if v.Status != domain.StatusAvailable || skip[v.VoucherID] {
			continue
		}
		if oldest == nil || v.CreatedAt.Before(oldest.CreatedAt) {
			oldest = v
		}
	}
	if oldest == nil {
		return nil, domain.ErrVoucherNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (s *MemoryStore) Claim(_ context.Context, voucherID, account string, now time.Time, window time.Duration) (*domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vouchers[voucherID]
	if !ok || v.Status != domain.StatusAvailable || v.IsRedeemed {
		return nil, domain.ErrRaceLost
	}

	// Same constraint the partial unique index enforces: one active
	// voucher per account.
	for _, held := range s.vouchers {
		if held.Active() && held.OwnerAccount != nil && *held.OwnerAccount == account {
			return nil, domain.ErrAccountConflict
		}
	}

	assignedAt := now
	expiresAt := now.Add(window)
	v.Status = domain.StatusAssigned
	v.OwnerAccount = &account
	v.AssignedAt = &assignedAt
	v.ExpiresAt = &expiresAt

	cp := *v
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, voucherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vouchers[voucherID]; !ok {
		return domain.ErrVoucherNotFound
	}
	delete(s.vouchers, voucherID)
	return nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[domain.VoucherStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.VoucherStatus]int)
	for _, v := range s.vouchers {
		counts[v.Status]++
	}
	return counts, nil
}
