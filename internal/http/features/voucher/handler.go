package voucher

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Marrmee/spark-voucherd/internal/allocation"
	"github.com/Marrmee/spark-voucherd/internal/domain"
	"github.com/Marrmee/spark-voucherd/internal/httputil"
	"github.com/Marrmee/spark-voucherd/internal/validate"
)

type Handler struct {
	logger     *slog.Logger
	service    *allocation.Service
	retryAfter time.Duration
}

func NewHandler(logger *slog.Logger, service *allocation.Service, retryAfter time.Duration) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		retryAfter: retryAfter,
	}
}

type AllocateRequest struct {
	AccountID string `json:"accountId" validate:"required,eth_addr"`
}

type AllocateResponse struct {
	VoucherID       string     `json:"voucherId"`
	VerificationURL string     `json:"verificationUrl"`
	Status          string     `json:"status"`
	IsVerified      bool       `json:"isVerified"`
	VerifiedAt      *time.Time `json:"verifiedAt"`
	AssignedAt      *time.Time `json:"assignedAt"`
	ExpiresAt       *time.Time `json:"expiresAt"`
}

// Allocate hands a voucher to the requesting account, or returns the one it
// already holds.
// POST /v1/vouchers/allocate
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	alloc, err := h.service.Allocate(r.Context(), req.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAccount):
			httputil.Error(w, http.StatusBadRequest, "invalid account identifier")
		case errors.Is(err, domain.ErrPoolExhausted):
			httputil.ErrorWithRetry(w, http.StatusNotFound,
				"no vouchers available. please try again later",
				int(h.retryAfter.Seconds()))
		case errors.Is(err, domain.ErrVerificationUnavailable):
			httputil.ErrorWithRetry(w, http.StatusServiceUnavailable,
				"verification service temporarily unavailable. please try again later",
				int(h.retryAfter.Seconds()))
		default:
			h.logger.Error("allocation failed", "account", req.AccountID, "error", err)
			httputil.Error(w, http.StatusInternalServerError, "allocation failed")
		}
		return
	}

	httputil.JSON(w, http.StatusOK, AllocateResponse{
		VoucherID:       alloc.VoucherID,
		VerificationURL: alloc.VerificationURL,
		Status:          string(alloc.Status),
		IsVerified:      alloc.IsVerified,
		VerifiedAt:      alloc.VerifiedAt,
		AssignedAt:      alloc.AssignedAt,
		ExpiresAt:       alloc.ExpiresAt,
	})
}

type PoolResponse struct {
	Available int `json:"available"`
	Assigned  int `json:"assigned"`
	Verified  int `json:"verified"`
}

// Pool returns voucher counts by status.
// GET /v1/vouchers/pool
func (h *Handler) Pool(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.PoolCounts(r.Context())
	if err != nil {
		h.logger.Error("failed to read pool counts", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to read pool")
		return
	}

	httputil.JSON(w, http.StatusOK, PoolResponse{
		Available: counts[domain.StatusAvailable],
		Assigned:  counts[domain.StatusAssigned],
		Verified:  counts[domain.StatusVerified],
	})
}
