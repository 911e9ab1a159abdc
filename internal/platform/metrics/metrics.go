package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for registration and allocation.
// All methods are nil-safe so components can run without metrics wired.
type Metrics struct {
	StudentsRegistered    prometheus.Counter
	RegistrationsRejected *prometheus.CounterVec
	AllocationRuns        prometheus.Counter
	AllocationOutcomes    *prometheus.CounterVec
	AllocationDuration    prometheus.Histogram
	SeatsRemaining        *prometheus.GaugeVec
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StudentsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "admission_students_registered_total",
			Help: "Total number of students added to the roster",
		}),
		RegistrationsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_registrations_rejected_total",
			Help: "Registrations rejected by error code",
		}, []string{"code"}),
		AllocationRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "admission_allocation_runs_total",
			Help: "Total number of allocation passes",
		}),
		AllocationOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_allocation_outcomes_total",
			Help: "Per-student allocation outcomes by status",
		}, []string{"status"}), // status: "allocated", "not_allocated", "not_eligible"
		AllocationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "admission_allocation_duration_seconds",
			Help:    "Duration of a full allocation pass",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		SeatsRemaining: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "admission_seats_remaining",
			Help: "Seats left after the last allocation pass",
		}, []string{"college", "branch"}),
	}
}

// IncrementStudentsRegistered records a successful registration.
func (m *Metrics) IncrementStudentsRegistered() {
	if m != nil {
		m.StudentsRegistered.Inc()
	}
}

// IncrementRegistrationRejected records a rejected registration by error code.
func (m *Metrics) IncrementRegistrationRejected(code string) {
	if m != nil {
		m.RegistrationsRejected.WithLabelValues(code).Inc()
	}
}

// ObserveAllocation records one allocation pass and its duration.
func (m *Metrics) ObserveAllocation(d time.Duration) {
	if m != nil {
		m.AllocationRuns.Inc()
		m.AllocationDuration.Observe(d.Seconds())
	}
}

// AddAllocationOutcome adds n students to the given outcome.
func (m *Metrics) AddAllocationOutcome(status string, n int) {
	if m != nil && n > 0 {
		m.AllocationOutcomes.WithLabelValues(status).Add(float64(n))
	}
}

// SetSeatsRemaining publishes the seats left in one college/branch pool.
func (m *Metrics) SetSeatsRemaining(college, branch string, n int) {
	if m != nil {
		m.SeatsRemaining.WithLabelValues(college, branch).Set(float64(n))
	}
}
