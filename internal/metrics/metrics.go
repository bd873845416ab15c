package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the voucher service.
type Metrics struct {
	AllocationsTotal        prometheus.Counter
	RacesLostTotal          prometheus.Counter
	PrunedTotal             prometheus.Counter
	VerificationErrorsTotal prometheus.Counter
	SweepsTotal             prometheus.Counter
	PoolByStatus            *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AllocationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voucherd_allocations_total",
			Help: "Total number of vouchers newly assigned to accounts",
		}),
		RacesLostTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voucherd_allocation_races_total",
			Help: "Total number of conditional claims lost to a concurrent request",
		}),
		PrunedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voucherd_pruned_total",
			Help: "Total number of vouchers deleted after the authority reported prior redemption",
		}),
		VerificationErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voucherd_verification_errors_total",
			Help: "Total number of inconclusive external verification checks",
		}),
		SweepsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voucherd_sweeps_total",
			Help: "Total number of expiration sweeps executed",
		}),
		PoolByStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "voucherd_pool_vouchers",
			Help: "Current number of vouchers in the pool by status",
		}, []string{"status"}),
	}
}

// Nil-safe increment helpers so callers can run without metrics wired
// (unit tests, local tooling).

func (m *Metrics) IncAllocations() {
	if m == nil {
		return
	}
	m.AllocationsTotal.Inc()
}

func (m *Metrics) IncRacesLost() {
	if m == nil {
		return
	}
	m.RacesLostTotal.Inc()
}

func (m *Metrics) IncPruned() {
	if m == nil {
		return
	}
	m.PrunedTotal.Inc()
}

func (m *Metrics) IncVerificationErrors() {
	if m == nil {
		return
	}
	m.VerificationErrorsTotal.Inc()
}

func (m *Metrics) IncSweeps() {
	if m == nil {
		return
	}
	m.SweepsTotal.Inc()
}

// SetPoolSize records the pool-analytics aggregate for one status.
func (m *Metrics) SetPoolSize(status string, n int) {
	if m == nil {
		return
	}
	m.PoolByStatus.WithLabelValues(status).Set(float64(n))
}
