// Package allocation hands out verification vouchers: at most one active
// voucher per account, at most one owner per voucher, reconciled against the
// external authority and reclaimed after expiry.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Marrmee/spark-voucherd/internal/domain"
	"github.com/Marrmee/spark-voucherd/internal/metrics"
)

// Config holds allocation service configuration.
type Config struct {
	// VerifyBaseURL is the user-facing endpoint the verification URL is
	// derived from.
	VerifyBaseURL string
	// AssignmentWindow is how long an assignment is held before the
	// sweeper reclaims it.
	AssignmentWindow time.Duration
	// MaxAttempts bounds the candidate loop: no request performs more
	// external checks or claim attempts than this.
	MaxAttempts int
}

// Allocation is the caller-visible view of an assigned voucher.
type Allocation struct {
	VoucherID       string
	VerificationURL string
	Status          domain.VoucherStatus
	IsVerified      bool
	VerifiedAt      *time.Time
	AssignedAt      *time.Time
	ExpiresAt       *time.Time
}

// Service orchestrates voucher allocation over a Store and the external
// verification authority.
type Service struct {
	config  Config
	store   Store
	checker Checker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService creates an allocation service. metrics may be nil.
func NewService(config Config, store Store, checker Checker, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config:  config,
		store:   store,
		checker: checker,
		metrics: m,
		logger:  logger,
	}
}

// Allocate assigns a voucher to the account, or returns the assignment the
// account already holds. The flow is: sweep expired assignments, look up an
// existing assignment, then run the bounded candidate loop of select,
// external check, conditional claim.
//
// Terminal failures are a closed set: domain.ErrInvalidAccount,
// domain.ErrPoolExhausted, domain.ErrVerificationUnavailable, or a wrapped
// store error for anything unexpected.
func (s *Service) Allocate(ctx context.Context, account string) (*Allocation, error) {
	account = strings.ToLower(strings.TrimSpace(account))
	if account == "" {
		return nil, domain.ErrInvalidAccount
	}

	// Reclaim expired assignments before reading the pool. A sweep
	// failure means the store view may be stale, so the whole request
	// aborts rather than allocating against it.
	if err := s.store.SweepExpired(ctx, time.Now()); err != nil {
		return nil, fmt.Errorf("expiration sweep failed: %w", err)
	}
	s.metrics.IncSweeps()

	// Idempotent path: an account with a live assignment always gets it
	// back unchanged, with no writes.
	existing, err := s.store.GetActiveByOwner(ctx, account)
	if err == nil {
		return s.toAllocation(existing), nil
	}
	if !errors.Is(err, domain.ErrAccountHasNoVoucher) {
		return nil, fmt.Errorf("assignment lookup failed: %w", err)
	}

	return s.allocateNew(ctx, account)
}

func (s *Service) allocateNew(ctx context.Context, account string) (*Allocation, error) {
	// Candidates whose external check was inconclusive are skipped for
	// the rest of this request; asking the authority the same question
	// again immediately has no better expectation. They stay available
	// for later requests.
	var inconclusive []string

	// Tracks which terminal error wins if the loop ends without a
	// success: the condition hit most recently.
	sawInconclusiveLast := false

	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		candidate, err := s.store.OldestAvailable(ctx, inconclusive)
		if errors.Is(err, domain.ErrVoucherNotFound) {
			if sawInconclusiveLast || len(inconclusive) > 0 {
				return nil, domain.ErrVerificationUnavailable
			}
			return nil, domain.ErrPoolExhausted
		}
		if err != nil {
			return nil, fmt.Errorf("candidate selection failed: %w", err)
		}

		redeemed, err := s.checker.CheckRedeemed(ctx, candidate.VoucherID)
		if err != nil {
			// Inconclusive, never "not redeemed".
			s.metrics.IncVerificationErrors()
			s.logger.Warn("verification check inconclusive",
				"voucher_id", candidate.VoucherID,
				"error", err,
			)
			inconclusive = append(inconclusive, candidate.VoucherID)
			sawInconclusiveLast = true
			continue
		}

		if redeemed {
			// Consumed through a channel this system never saw. The
			// row is invalid everywhere; remove it for good.
			if err := s.store.Delete(ctx, candidate.VoucherID); err != nil && !errors.Is(err, domain.ErrVoucherNotFound) {
				return nil, fmt.Errorf("failed to prune redeemed voucher: %w", err)
			}
			s.metrics.IncPruned()
			s.logger.Info("pruned externally redeemed voucher", "voucher_id", candidate.VoucherID)
			sawInconclusiveLast = false
			continue
		}

		claimed, err := s.store.Claim(ctx, candidate.VoucherID, account, time.Now(), s.config.AssignmentWindow)
		if errors.Is(err, domain.ErrRaceLost) {
			// A concurrent request won this candidate; the next
			// iteration selects the next-oldest row.
			s.metrics.IncRacesLost()
			sawInconclusiveLast = false
			continue
		}
		if errors.Is(err, domain.ErrAccountConflict) {
			// A parallel request for this same account got there
			// first. Return its assignment, keeping allocation
			// idempotent under self-races.
			existing, lookupErr := s.store.GetActiveByOwner(ctx, account)
			if lookupErr != nil {
				return nil, fmt.Errorf("assignment lookup after account conflict failed: %w", lookupErr)
			}
			return s.toAllocation(existing), nil
		}
		if err != nil {
			return nil, fmt.Errorf("claim transaction failed: %w", err)
		}

		s.metrics.IncAllocations()
		s.logger.Info("voucher assigned",
			"voucher_id", claimed.VoucherID,
			"account", account,
			"expires_at", claimed.ExpiresAt,
		)
		s.refreshPoolGauges(ctx)
		return s.toAllocation(claimed), nil
	}

	if sawInconclusiveLast {
		return nil, domain.ErrVerificationUnavailable
	}
	return nil, domain.ErrPoolExhausted
}

// PoolCounts returns the pool-analytics aggregate.
func (s *Service) PoolCounts(ctx context.Context) (map[domain.VoucherStatus]int, error) {
	return s.store.CountByStatus(ctx)
}

// Sweep reclaims expired assignments. Exposed for the background sweeper;
// the same idempotent store call runs at the start of every allocation.
func (s *Service) Sweep(ctx context.Context) error {
	if err := s.store.SweepExpired(ctx, time.Now()); err != nil {
		return err
	}
	s.metrics.IncSweeps()
	return nil
}

func (s *Service) refreshPoolGauges(ctx context.Context) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		s.logger.Warn("failed to read pool counts", "error", err)
		return
	}
	for _, status := range []domain.VoucherStatus{domain.StatusAvailable, domain.StatusAssigned, domain.StatusVerified} {
		s.metrics.SetPoolSize(string(status), counts[status])
	}
}

func (s *Service) toAllocation(v *domain.Voucher) *Allocation {
	return &Allocation{
		VoucherID:       v.VoucherID,
		VerificationURL: domain.VerificationURL(s.config.VerifyBaseURL, v.VoucherID),
		Status:          v.Status,
		IsVerified:      v.Status == domain.StatusVerified,
		VerifiedAt:      v.VerifiedAt,
		AssignedAt:      v.AssignedAt,
		ExpiresAt:       v.ExpiresAt,
	}
}
